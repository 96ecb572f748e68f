package order

import (
	"errors"
	"sync"
	"testing"

	"github.com/vladislavdragonenkov/insole-oms/internal/domain"
)

type stubOrderRepo struct {
	domain.OrderRepository

	max int64
	err error
}

func (s *stubOrderRepo) MaxOrderNumber(partnerID string, kind domain.OrderKind) (int64, error) {
	return s.max, s.err
}

func TestSequencerNext(t *testing.T) {
	cases := []struct {
		name string
		kind domain.OrderKind
		max  int64
		want int64
	}{
		{name: "insole floor on empty", kind: domain.OrderKindInsole, max: 0, want: 1000},
		{name: "insole below floor", kind: domain.OrderKindInsole, max: 7, want: 1000},
		{name: "insole increments", kind: domain.OrderKindInsole, max: 1041, want: 1042},
		{name: "shaft floor on empty", kind: domain.OrderKindShaft, max: 0, want: 10000},
		{name: "shaft increments", kind: domain.OrderKindShaft, max: 10230, want: 10231},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seq := NewNumberSequencer(&stubOrderRepo{max: tc.max})
			got, err := seq.Next("partner-1", tc.kind)
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Next() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestSequencerNextRepoError(t *testing.T) {
	seq := NewNumberSequencer(&stubOrderRepo{err: errors.New("db down")})
	if _, err := seq.Next("partner-1", domain.OrderKindInsole); err == nil {
		t.Fatal("expected error from repository to propagate")
	}
}

// Нумерация без блокировки: конкурентные вызовы над одним и тем же
// максимумом получают одинаковый номер. Поведение намеренное, тест
// фиксирует его как контракт.
func TestSequencerNextConcurrentDuplicates(t *testing.T) {
	seq := NewNumberSequencer(&stubOrderRepo{max: 1041})

	const callers = 8
	numbers := make([]int64, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			n, err := seq.Next("partner-1", domain.OrderKindInsole)
			if err != nil {
				t.Errorf("Next: %v", err)
				return
			}
			numbers[slot] = n
		}(i)
	}
	wg.Wait()

	for _, n := range numbers {
		if n != 1042 {
			t.Fatalf("got number %d, want every concurrent caller to observe 1042", n)
		}
	}
}
