package model

import (
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/model1"
	"github.com/inventiv/ivs/internal/vlist"
)

// TableListener represents a table model listener.
type TableListener interface {
	// TableNoData notifies listener the query matched no rows.
	TableNoData(dao.Query)

	// TableCountsChanged notifies the total or filtered counts changed.
	TableCountsChanged(vlist.Counts)

	// TableDataChanged notifies the cached rows or the window changed.
	TableDataChanged(version uint64)

	// TableLoadFailed notifies a page load failed.
	TableLoadFailed(error)
}

// IndexedRow is a rendered row of the visible window.
type IndexedRow struct {
	Index  int
	Loaded bool
	Event  model1.RowEvent
}
