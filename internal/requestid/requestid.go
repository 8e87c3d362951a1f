package requestid

import (
	crand "crypto/rand"
	"math/big"
	"net/http"
	"strings"
	"time"
)

const HeaderKey = "X-Request-Id"

const maxInboundLen = 64

// Gen returns yyyymmddHHMMSSuuuuuu followed by 8 random digits.
func Gen() string {
	return strings.ReplaceAll(time.Now().Format("20060102150405.000000"), ".", "") + randomDigits(8)
}

// FromHeader reuses an inbound id when it is short and printable, otherwise
// a new one is generated.
func FromHeader(h http.Header) string {
	v := strings.TrimSpace(h.Get(HeaderKey))
	if v == "" || len(v) > maxInboundLen {
		return Gen()
	}
	for _, r := range v {
		if r < 0x21 || r > 0x7e {
			return Gen()
		}
	}
	return v
}

func randomDigits(n int) string {
	const digits = "0123456789"
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(digits)))
	for i := 0; i < n; i++ {
		idx := 0
		if v, err := crand.Int(crand.Reader, max); err == nil {
			idx = int(v.Int64())
		}
		b.WriteByte(digits[idx])
	}
	return b.String()
}
