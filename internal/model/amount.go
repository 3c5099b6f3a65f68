package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"github.com/holiman/uint256"
)

// Amount 以最小货币单位(wei)计的无符号金额
//
// 数据库中存为十进制字符串，JSON 中序列化为带引号的十进制字符串。
type Amount uint256.Int

// Zero 零金额
var Zero Amount

// MaxAmount 可表示的最大金额 2^256-1
var MaxAmount = Amount(*new(uint256.Int).SetAllOne())

// NewAmount 从 uint64 构造金额
func NewAmount(v uint64) Amount {
	return Amount(*uint256.NewInt(v))
}

// ParseAmount 解析十进制金额字符串
func ParseAmount(s string) (Amount, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount(*v), nil
}

// MustAmount 解析金额，失败时 panic，仅用于常量和测试
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) u() *uint256.Int {
	v := uint256.Int(a)
	return &v
}

// IsZero 是否为零
func (a Amount) IsZero() bool {
	return a.u().IsZero()
}

// Cmp 比较两个金额
func (a Amount) Cmp(b Amount) int {
	return a.u().Cmp(b.u())
}

// Lt a < b
func (a Amount) Lt(b Amount) bool {
	return a.Cmp(b) < 0
}

// Gt a > b
func (a Amount) Gt(b Amount) bool {
	return a.Cmp(b) > 0
}

// Eq a == b
func (a Amount) Eq(b Amount) bool {
	return a.Cmp(b) == 0
}

// Add 加法
func (a Amount) Add(b Amount) Amount {
	var z uint256.Int
	z.Add(a.u(), b.u())
	return Amount(z)
}

// Sub 减法，结果小于零时返回零
func (a Amount) Sub(b Amount) Amount {
	if a.Lt(b) {
		return Zero
	}
	var z uint256.Int
	z.Sub(a.u(), b.u())
	return Amount(z)
}

// Min 较小值
func (a Amount) Min(b Amount) Amount {
	if a.Lt(b) {
		return a
	}
	return b
}

// MulDiv 计算 a*num/den（向下取整），den 为零时返回零
func (a Amount) MulDiv(num, den Amount) Amount {
	if den.IsZero() {
		return Zero
	}
	var z uint256.Int
	z.MulDivOverflow(a.u(), num.u(), den.u())
	return Amount(z)
}

// CmpScaled 比较 a*m 与 b*n，乘积超出 256 位时改用大整数，结果不会回绕
func (a Amount) CmpScaled(m uint64, b Amount, n uint64) int {
	var x, y uint256.Int
	_, xOverflow := x.MulOverflow(a.u(), uint256.NewInt(m))
	_, yOverflow := y.MulOverflow(b.u(), uint256.NewInt(n))
	if !xOverflow && !yOverflow {
		return x.Cmp(&y)
	}
	left := new(big.Int).Mul(a.u().ToBig(), new(big.Int).SetUint64(m))
	right := new(big.Int).Mul(b.u().ToBig(), new(big.Int).SetUint64(n))
	return left.Cmp(right)
}

// Percent 计算 a*pct/100（向下取整）
func (a Amount) Percent(pct uint64) Amount {
	return a.MulDiv(NewAmount(pct), NewAmount(100))
}

// DivUint64 a/d（向下取整）
func (a Amount) DivUint64(d uint64) Amount {
	return a.MulDiv(NewAmount(1), NewAmount(d))
}

// String 十进制表示
func (a Amount) String() string {
	return a.u().Dec()
}

// MarshalJSON 实现 json.Marshaler
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON 同时接受带引号的十进制字符串和裸数字
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*a = Zero
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Value 实现 driver.Valuer
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan 实现 sql.Scanner
func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = Zero
		return nil
	case string:
		return a.scanString(v)
	case []byte:
		return a.scanString(string(v))
	case int64:
		if v < 0 {
			return fmt.Errorf("negative amount %d", v)
		}
		*a = NewAmount(uint64(v))
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Amount", src)
	}
}

func (a *Amount) scanString(s string) error {
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
