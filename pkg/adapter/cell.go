package adapter

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/leapstack-labs/leapedit/pkg/core"
)

// cellFromDriver converts a driver value into a cell value.
func cellFromDriver(v any) core.CellValue {
	switch x := v.(type) {
	case nil:
		return core.Null()
	case []byte:
		if utf8.Valid(x) {
			return core.Concrete(string(x))
		}
		return core.HexLob(x)
	case string:
		return core.Concrete(x)
	case bool:
		return core.Concrete(strconv.FormatBool(x))
	case int64:
		return core.Concrete(strconv.FormatInt(x, 10))
	case float64:
		return core.Concrete(strconv.FormatFloat(x, 'g', -1, 64))
	case time.Time:
		return core.Concrete(x.Format(time.RFC3339Nano))
	default:
		return core.Concrete(fmt.Sprint(x))
	}
}
