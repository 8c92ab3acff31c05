package pipeline

import (
	"fmt"

	"go-peopleflow/internal/category"
	"go-peopleflow/internal/model"
)

// FilterRowByJudge keeps the base columns of row plus the columns judge
// accepts, and recomputes totalCount from the kept category columns. The
// input row is not modified. A stale weekday/weekend split is dropped. A nil
// judge keeps no category columns.
func FilterRowByJudge(row model.Row, judge func(column string) bool) model.Row {
	if judge == nil {
		judge = func(string) bool { return false }
	}
	out := row
	out.Counts = make(map[string]int)
	for k, v := range row.Counts {
		if judge(k) {
			out.Counts[k] = v
		}
	}
	out.Attrs = nil
	for k, v := range row.Attrs {
		if !judge(k) {
			continue
		}
		if out.Attrs == nil {
			out.Attrs = make(map[string]string)
		}
		out.Attrs[k] = v
	}
	if row.Day != nil {
		d := *row.Day
		out.Day = &d
	}
	out.Split = nil
	out.TotalCount = out.CategorySum()
	return out
}

// FilterRows applies FilterRowByJudge to every row.
func FilterRows(rows []model.Row, judge func(column string) bool) []model.Row {
	out := make([]model.Row, len(rows))
	for i, r := range rows {
		out[i] = FilterRowByJudge(r, judge)
	}
	return out
}

// ProjectDataset narrows ds to the columns of a registered group. An empty
// group returns ds unchanged.
func ProjectDataset(ds *model.Dataset, reg *category.Registry, group string) (*model.Dataset, error) {
	if group == "" {
		return ds, nil
	}
	judge, err := reg.Judge(group)
	if err != nil {
		return nil, fmt.Errorf("project dataset: %w", err)
	}

	cols := make([]string, 0, len(ds.Columns))
	for _, c := range ds.Columns {
		if model.IsBaseColumn(c) || judge(c) {
			cols = append(cols, c)
		}
	}
	return &model.Dataset{
		Source:  ds.Source,
		Columns: cols,
		Rows:    FilterRows(ds.Rows, judge),
	}, nil
}
