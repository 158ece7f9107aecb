package db

import (
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"15:04:05.999999999",
	"15:04:05",
}

// ConvertInput turns a decoded request value into a driver value of the
// declared type. nil stays nil and binds as SQL NULL.
func ConvertInput(t DbType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch t {
	case DbByte, DbInt16, DbInt32, DbInt64:
		return toInt64(v)
	case DbSingle, DbDouble:
		return toFloat64(v)
	case DbDecimal, DbCurrency, DbVarNumeric:
		return toDecimal(v)
	case DbBoolean:
		return toBool(v)
	case DbDate, DbDateTime, DbDateTime2, DbDateTimeOffset, DbTime:
		return toTime(v)
	case DbGuid:
		return toUUID(v)
	case DbBinary:
		return toBytes(v)
	case DbString, DbAnsiString, DbStringFixedLength, DbAnsiStringFixedLength, DbXml:
		return toString(v), nil
	default:
		return normalizeNumber(v), nil
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case json.Number:
		return x.Int64()
	case float64:
		if math.Trunc(x) != x {
			return 0, errors.Errorf("value %v is not an integer", x)
		}
		return int64(x), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, errors.Errorf("cannot convert %T to integer", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	case decimal.Decimal:
		f, _ := x.Float64()
		return f, nil
	default:
		return 0, errors.Errorf("cannot convert %T to float", v)
	}
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case json.Number:
		return decimal.NewFromString(x.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(x))
	case float64:
		return decimal.NewFromFloat(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	default:
		return decimal.Decimal{}, errors.Errorf("cannot convert %T to decimal", v)
	}
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(x))
	case json.Number:
		n, err := x.Float64()
		return n != 0, err
	case float64:
		return x != 0, nil
	case int64:
		return x != 0, nil
	case int:
		return x != 0, nil
	default:
		return false, errors.Errorf("cannot convert %T to boolean", v)
	}
}

func toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, errors.Errorf("cannot parse %q as time", x)
	default:
		return time.Time{}, errors.Errorf("cannot convert %T to time", v)
	}
}

func toUUID(v any) (uuid.UUID, error) {
	switch x := v.(type) {
	case uuid.UUID:
		return x, nil
	case string:
		return uuid.Parse(strings.TrimSpace(x))
	case []byte:
		return uuid.FromBytes(x)
	default:
		return uuid.Nil, errors.Errorf("cannot convert %T to guid", v)
	}
}

func toBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		return base64.StdEncoding.DecodeString(x)
	default:
		return nil, errors.Errorf("cannot convert %T to binary", v)
	}
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// normalizeNumber keeps integral JSON numbers integral.
func normalizeNumber(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case float64:
		if math.Trunc(t) == t && math.Abs(t) < 1<<53 {
			return int64(t)
		}
		return t
	default:
		return v
	}
}

// normalizeColumnValue converts raw scanned values into JSON friendly ones
// using the column's database type name.
func normalizeColumnValue(v any, dbType string) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}

	switch strings.ToUpper(dbType) {
	case "DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY":
		if d, err := decimal.NewFromString(string(b)); err == nil {
			return d
		}
		return string(b)
	case "UNIQUEIDENTIFIER":
		var id mssql.UniqueIdentifier
		if err := id.Scan(b); err == nil {
			return id.String()
		}
		return string(b)
	case "BINARY", "VARBINARY", "IMAGE", "BYTEA", "BLOB", "TIMESTAMP", "ROWVERSION":
		return b
	default:
		return string(b)
	}
}

// Stringify renders a captured value for the output audit table.
func Stringify(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case decimal.Decimal:
		return x.String()
	case sql.NullString:
		if !x.Valid {
			return nil
		}
		return x.String
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
