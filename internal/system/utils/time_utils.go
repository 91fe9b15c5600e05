/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package utils provides common utility functions.
package utils

import "time"

// Clock returns the current time. Services take a Clock so tests can pin "now".
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time {
	return time.Now()
}

// TimeToMillis converts time.Time to milliseconds since epoch.
func TimeToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// EndOfDayMillis returns the last millisecond of the UTC calendar day given as YYYY-MM-DD.
func EndOfDayMillis(date string) (int64, error) {
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return 0, err
	}
	return TimeToMillis(day.Add(24*time.Hour - time.Millisecond)), nil
}
