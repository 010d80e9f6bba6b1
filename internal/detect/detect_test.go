package detect

import (
	"testing"

	"github.com/shopspring/decimal"

	"marketwatch/internal/state"
)

func pct(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestPresenceFiresOncePerIdentity(t *testing.T) {
	st := &state.SeenState{}

	d := Presence(st, "post-1")
	if !d.Fire || d.Reason != ReasonNewIdentity {
		t.Fatalf("首次出现应触发 new-identity: %#v", d)
	}

	st.Set("post-1", "seen")
	if Presence(st, "post-1").Fire {
		t.Fatal("已记录的标识不应再次触发")
	}
	if !Presence(st, "post-2").Fire {
		t.Fatal("新标识应触发")
	}
}

func TestThresholdBelowNeverFires(t *testing.T) {
	st := &state.SeenState{}
	threshold := pct(3.0)

	if Threshold(st, "005930_2026-08-28", pct(2.9), threshold).Fire {
		t.Fatal("2.9% 低于阈值, 不应触发")
	}
	if Threshold(st, "005930_2026-08-28", pct(-2.99), threshold).Fire {
		t.Fatal("-2.99% 低于阈值, 不应触发")
	}
}

func TestThresholdSameDirectionDedup(t *testing.T) {
	st := &state.SeenState{}
	threshold := pct(3.0)
	id := "005930_2026-08-28"

	first := Threshold(st, id, pct(4.0), threshold)
	if !first.Fire || first.Reason != ReasonThresholdExceeded || first.Direction != DirectionUp {
		t.Fatalf("+4.0%% 应触发 threshold-exceeded/up: %#v", first)
	}
	st.Set(id, first.Direction)

	second := Threshold(st, id, pct(3.5), threshold)
	if second.Fire {
		t.Fatalf("同日同方向 +3.5%% 不应重复触发: %#v", second)
	}
}

func TestThresholdDirectionReversal(t *testing.T) {
	st := &state.SeenState{}
	threshold := pct(3.0)
	id := "005930_2026-08-28"

	first := Threshold(st, id, pct(4.0), threshold)
	st.Set(id, first.Direction)

	reversed := Threshold(st, id, pct(-3.2), threshold)
	if !reversed.Fire || reversed.Reason != ReasonDirectionReversed || reversed.Direction != DirectionDown {
		t.Fatalf("-3.2%% 应以方向反转触发: %#v", reversed)
	}
	st.Set(id, reversed.Direction)

	if Threshold(st, id, pct(-5.0), threshold).Fire {
		t.Fatal("反转后同方向不应再触发")
	}
}

func TestThresholdExactBoundaryFires(t *testing.T) {
	st := &state.SeenState{}
	d := Threshold(st, "id_2026-08-28", pct(-3.0), pct(3.0))
	if !d.Fire || d.Direction != DirectionDown {
		t.Fatalf("|-3.0| == 3.0 应触发: %#v", d)
	}
}
