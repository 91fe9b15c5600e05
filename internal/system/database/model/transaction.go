/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
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

package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Tx wraps sqlx.Tx to implement TxInterface.
type Tx struct {
	ctx    context.Context
	tx     *sqlx.Tx
	dbType string
}

var _ TxInterface = (*Tx)(nil)

// NewTx creates a new Tx instance bound to ctx.
func NewTx(ctx context.Context, tx *sqlx.Tx, dbType string) *Tx {
	return &Tx{ctx: ctx, tx: tx, dbType: dbType}
}

// Execute runs a statement inside the transaction.
func (t *Tx) Execute(query DBQuery, args ...interface{}) (int64, error) {
	result, err := t.tx.ExecContext(t.ctx, query.GetQuery(t.dbType), args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", query.ID, err)
	}
	return result.RowsAffected()
}

// Query runs a select inside the transaction.
func (t *Tx) Query(query DBQuery, args ...interface{}) ([]Row, error) {
	rows, err := t.tx.QueryxContext(t.ctx, query.GetQuery(t.dbType), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", query.ID, err)
	}
	return ScanRows(rows)
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// ScanRows drains rows into Row maps. Column names are upper-cased so that MySQL and
// PostgreSQL results share keys, and []byte values are returned as strings.
func ScanRows(rows *sqlx.Rows) ([]Row, error) {
	defer rows.Close()

	results := make([]Row, 0)
	for rows.Next() {
		raw := make(map[string]interface{})
		if err := rows.MapScan(raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(Row, len(raw))
		for column, value := range raw {
			if b, ok := value.([]byte); ok {
				value = string(b)
			}
			row[strings.ToUpper(column)] = value
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return results, nil
}
