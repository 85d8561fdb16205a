package json

import "testing"

func BenchmarkUnmarshal(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Unmarshal([]byte(`{"id":"1","venue":"binance","symbol":"BTCUSDT","price":"41000.5","amount":"0.01"}`), &map[string]any{})
	}
}

func BenchmarkMarshal(b *testing.B) {
	v := map[string]any{"id": "1", "venue": "binance", "symbol": "BTCUSDT", "price": "41000.5", "amount": "0.01"}
	for i := 0; i < b.N; i++ {
		_, _ = Marshal(v)
	}
}
