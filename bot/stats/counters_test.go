package stats

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestCountersConcurrent(t *testing.T) {
	t.Parallel()

	c := New(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.MessageReceived()
			c.MessageReceived()
			c.OrderFinalized()
			c.Error()
		}()
	}
	wg.Wait()

	snap := c.Snapshot(7)
	if snap.MessagesReceived != 100 || snap.OrdersFinalized != 50 || snap.Errors != 50 || snap.ActiveUsers != 7 {
		t.Fatalf("Snapshot() = %+v", snap)
	}
}

func TestSnapshotJSONKeys(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(New(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)).Snapshot(0))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"mensagensRecebidas", "pedidosFinalizados", "usuariosAtivos", "erros", "iniciadoEm"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("snapshot JSON missing %q: %s", key, raw)
		}
	}
}
