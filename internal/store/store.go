// 包 store: 提供与 PostgreSQL 的数据访问层，包含灰度表读写与查询统计
package store

import (
	"context"
	"database/sql"
	"errors"

	"coord2country/internal/logger"
	"coord2country/internal/revgeo"

	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"
)

// Store: 数据库访问入口，持有连接池
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// CountryRows: 读取灰度表，满足 revgeo.RowSource，用于 DATA_SOURCE=db
func (s *Store) CountryRows(ctx context.Context) ([]revgeo.CountryRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT grayshade, code, qid FROM _c2c_countries ORDER BY grayshade")
	if err != nil {
		return nil, eris.Wrap(err, "query countries")
	}
	defer rows.Close()
	var out []revgeo.CountryRecord
	for rows.Next() {
		var shade int
		var rec revgeo.CountryRecord
		if err := rows.Scan(&shade, &rec.Code, &rec.ID); err != nil {
			return nil, eris.Wrap(err, "scan country row")
		}
		if shade < 0 || shade > 255 {
			return nil, eris.Errorf("country row %s: grayshade %d out of range", rec.Code, shade)
		}
		rec.Grayshade = uint8(shade)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate countries")
	}
	logger.L().Debug("db_countries_loaded", "rows", len(out))
	return out, nil
}

// 文档注释：整表替换灰度表
// 背景：灰度表与栅格同版本发布，导入时以事务先清空后写入，避免新旧版本混杂。
// 约束：任一行失败整体回滚。
func (s *Store) ReplaceCountries(ctx context.Context, recs []revgeo.CountryRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, "DELETE FROM _c2c_countries"); err != nil {
		return eris.Wrap(err, "clear countries")
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO _c2c_countries(grayshade, code, qid) VALUES($1, $2, $3)")
	if err != nil {
		return eris.Wrap(err, "prepare insert")
	}
	defer stmt.Close()
	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx, int(r.Grayshade), r.Code, r.ID); err != nil {
			return eris.Wrapf(err, "insert grayshade %d", r.Grayshade)
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "commit")
	}
	logger.L().Info("db_countries_replaced", "rows", len(recs))
	return nil
}

// IncrStats: 成功查询后递增总计、当日与国家命中计数；newVisitor 为 true 时递增访客计数
// 约束：各语句互不依赖，单条失败不阻断其余语句；所有错误合并返回，由调用方决定是否仅记录日志
func (s *Store) IncrStats(ctx context.Context, code string, newVisitor bool) error {
	var errs []error
	exec := func(q string, args ...any) {
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			errs = append(errs, err)
		}
	}
	exec("UPDATE _c2c_stats_total SET total_queries=total_queries+1 WHERE id=1")
	exec("INSERT INTO _c2c_stats_daily(day, queries) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET queries=_c2c_stats_daily.queries+1")
	if code != "" {
		exec(`INSERT INTO _c2c_country_hits(code, hits, last_seen) VALUES($1, 1, now())
            ON CONFLICT (code) DO UPDATE SET hits=_c2c_country_hits.hits+1, last_seen=now()`, code)
	}
	if newVisitor {
		exec("UPDATE _c2c_stats_total SET total_visitors=total_visitors+1 WHERE id=1")
		exec("INSERT INTO _c2c_stats_daily(day, visitors) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET visitors=_c2c_stats_daily.visitors+1")
	}
	if err := errors.Join(errs...); err != nil {
		return eris.Wrap(err, "incr stats")
	}
	logger.L().Debug("stats_incr", "code", code, "new_visitor", newVisitor)
	return nil
}

// Totals: 统计返回结构，包含累计与当日查询次数
type Totals struct {
	Total    int64 `json:"total"`
	Today    int64 `json:"today"`
	Visitors int64 `json:"visitors"`
}

func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	row := s.db.QueryRowContext(ctx, "SELECT total_queries, total_visitors FROM _c2c_stats_total WHERE id=1")
	if err := row.Scan(&t.Total, &t.Visitors); err != nil && err != sql.ErrNoRows {
		return nil, eris.Wrap(err, "read totals")
	}
	row2 := s.db.QueryRowContext(ctx, "SELECT queries FROM _c2c_stats_daily WHERE day=current_date")
	if err := row2.Scan(&t.Today); err != nil && err != sql.ErrNoRows {
		return nil, eris.Wrap(err, "read daily")
	}
	logger.L().Debug("stats_totals", "total", t.Total, "today", t.Today)
	return &t, nil
}

// CountryHits: 国家命中计数
type CountryHits struct {
	Code string `json:"code"`
	Hits int64  `json:"hits"`
}

// TopCountries: 按命中次数降序返回前 n 个国家，n<=0 时取 10
func (s *Store) TopCountries(ctx context.Context, n int) ([]CountryHits, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := s.db.QueryContext(ctx, "SELECT code, hits FROM _c2c_country_hits ORDER BY hits DESC, code ASC LIMIT $1", n)
	if err != nil {
		return nil, eris.Wrap(err, "query country hits")
	}
	defer rows.Close()
	var out []CountryHits
	for rows.Next() {
		var h CountryHits
		if err := rows.Scan(&h.Code, &h.Hits); err != nil {
			return nil, eris.Wrap(err, "scan country hits")
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
