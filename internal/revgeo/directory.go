package revgeo

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// 文档注释：灰度到国家的只读目录
// 背景：启动时一次构建正向（灰度→记录）与反向（代码→记录）两张表，查询均为 O(1)。
// 约束：灰度必须唯一，重复时构建失败；代码重复不视为错误，反向表保留首次出现的记录。
type Directory struct {
	byShade map[uint8]CountryRecord
	byCode  map[string]CountryRecord
}

func NewDirectory(records []CountryRecord) (*Directory, error) {
	d := &Directory{
		byShade: make(map[uint8]CountryRecord, len(records)),
		byCode:  make(map[string]CountryRecord, len(records)),
	}
	for _, rec := range records {
		if prev, ok := d.byShade[rec.Grayshade]; ok {
			return nil, fmt.Errorf("%w: %d (%s, %s)", ErrDuplicateShade, rec.Grayshade, prev.Code, rec.Code)
		}
		d.byShade[rec.Grayshade] = rec
		if _, ok := d.byCode[rec.Code]; !ok {
			d.byCode[rec.Code] = rec
		}
	}
	return d, nil
}

func (d *Directory) Lookup(shade uint8) (CountryRecord, bool) {
	rec, ok := d.byShade[shade]
	return rec, ok
}

func (d *Directory) CodeForShade(shade uint8) (string, bool) {
	rec, ok := d.byShade[shade]
	return rec.Code, ok
}

func (d *Directory) RecordForCode(code string) (CountryRecord, bool) {
	rec, ok := d.byCode[code]
	return rec, ok
}

func (d *Directory) IDForCode(code string) (string, bool) {
	rec, ok := d.byCode[code]
	return rec.ID, ok
}

func (d *Directory) Len() int { return len(d.byShade) }

// Records 返回全部记录，按代码排序（代码相同按灰度）
func (d *Directory) Records() []CountryRecord {
	out := make([]CountryRecord, 0, len(d.byShade))
	for _, rec := range d.byShade {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Grayshade < out[j].Grayshade
	})
	return out
}

// 文档注释：解析国家灰度表 CSV
// 背景：列依次为 grayshade,code,qid；首行为表头跳过；首列为空的行视为空行跳过。
// 约束：灰度需为 0..255 的整数；代码去空白并转为大写；列数不足三列时报错并附带行号。
func ParseDirectoryCSV(r io.Reader) ([]CountryRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	var out []CountryRecord
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("revgeo: read countries csv: %w", err)
		}
		line++
		if line == 1 {
			continue
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("revgeo: countries csv line %d: want 3 fields, got %d", line, len(row))
		}
		n, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil || n < 0 || n > 255 {
			return nil, fmt.Errorf("revgeo: countries csv line %d: bad grayshade %q", line, row[0])
		}
		out = append(out, CountryRecord{
			Grayshade: uint8(n),
			Code:      strings.ToUpper(strings.TrimSpace(row[1])),
			ID:        strings.TrimSpace(row[2]),
		})
	}
}
