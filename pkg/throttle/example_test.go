package throttle_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/quotaflow/quotad/pkg/throttle"
)

func ExampleThrottle_Middleware() {
	reg := throttle.NewRegistry()
	reg.Register("GET /things", throttle.QuotaSpec{PerMinute: 2})
	reg.Freeze()

	clock := func() time.Time { return time.Unix(1_700_000_000, 0) }
	th := throttle.New(reg, throttle.NewMemoryStore(), nil, throttle.WithClock(clock))
	handler := th.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/things", nil)
		req.RemoteAddr = "1.2.3.4:5678"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		fmt.Println(rec.Code)
	}
	// Output:
	// 200
	// 200
	// 429
}
