package document

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Type ranks used to make Compare total across mixed types.
const (
	rankNull = iota
	rankNumber
	rankString
	rankObjectID
	rankBool
	rankTime
	rankOther
)

func rank(v any) int {
	switch v.(type) {
	case nil:
		return rankNull
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return rankNumber
	case string:
		return rankString
	case bson.ObjectID:
		return rankObjectID
	case bool:
		return rankBool
	case time.Time:
		return rankTime
	default:
		return rankOther
	}
}

// Compare orders two values: -1 if a < b, 0 if equal, +1 if a > b.
// Values of different types order by type rank
// (null < number < string < identifier < bool < time).
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case rankNull:
		return 0
	case rankNumber:
		fa, _ := ToFloat(a)
		fb, _ := ToFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case rankString:
		return strings.Compare(a.(string), b.(string))
	case rankObjectID:
		ia, ib := a.(bson.ObjectID), b.(bson.ObjectID)
		return bytes.Compare(ia[:], ib[:])
	case rankBool:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		}
		return 1
	case rankTime:
		return a.(time.Time).Compare(b.(time.Time))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

// Equal reports whether a and b are the same scalar. Identifiers only equal
// identifiers; an ObjectID never equals its hex string.
func Equal(a, b any) bool {
	return Key(a) == Key(b)
}

// Key returns a canonical string for a scalar, usable as a map key when
// grouping joined documents by their join value.
func Key(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bson.ObjectID:
		return "oid:" + t.Hex()
	case string:
		return "str:" + t
	case bool:
		return "bool:" + strconv.FormatBool(t)
	case time.Time:
		return "time:" + strconv.FormatInt(t.UnixNano(), 10)
	}
	if f, ok := ToFloat(v); ok {
		return "num:" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprintf("other:%v", v)
}

// ToFloat converts any Go numeric type to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
