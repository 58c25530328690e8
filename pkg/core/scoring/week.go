package scoring

import (
	"time"

	"github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"
)

type weekKey struct{ year, week int }

func isoWeek(date string) (weekKey, bool) {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return weekKey{}, false
	}
	y, w := t.ISOWeek()
	return weekKey{year: y, week: w}, true
}
