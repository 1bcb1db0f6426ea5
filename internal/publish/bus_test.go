package publish

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"anti-instagram/internal/logger"
	"anti-instagram/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu   sync.Mutex
	got  []Publication
	hold chan struct{}
}

func (c *collector) Name() string { return "collector" }

func (c *collector) Handle(p Publication) error {
	if c.hold != nil {
		<-c.hold
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, p)
	return nil
}

func (c *collector) kinds() []Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Kind, len(c.got))
	for i, p := range c.got {
		out[i] = p.Kind
	}
	return out
}

func testFrame(seq uint64) *models.Frame {
	f := models.NewFrame(2, 2, time.Unix(100, 0))
	f.Seq = seq
	return f
}

func TestBusDeliversByKindInOrder(t *testing.T) {
	bus := NewBus(8, logger.Nop())
	all := &collector{}
	transforms := &collector{}
	bus.Subscribe(all)
	bus.Subscribe(transforms, KindTransform)

	f := testFrame(1)
	bus.Publish(ThresholdsPublication(f, models.Thresholds{}))
	bus.Publish(TransformPublication(f, models.LinearTransform{Scale: [3]float64{1, 1, 1}}))
	bus.Publish(FramePublication(f))
	bus.Shutdown()

	assert.Equal(t, []Kind{KindThresholds, KindTransform, KindMaskedFrame}, all.kinds())
	assert.Equal(t, []Kind{KindTransform}, transforms.kinds())
	assert.Equal(t, bus.Session(), all.got[0].Session)
	assert.Equal(t, uint64(4), bus.Delivered())
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := NewBus(1, logger.Nop())
	slow := &collector{hold: make(chan struct{})}
	bus.Subscribe(slow)

	f := testFrame(1)
	for i := 0; i < 10; i++ {
		bus.Publish(FramePublication(f))
	}
	assert.Greater(t, bus.Dropped(), uint64(0), "publish never blocks on a stuck sink")

	close(slow.hold)
	bus.Shutdown()
	bus.Publish(FramePublication(f))
}

func TestBusRecoversFromSinkFailures(t *testing.T) {
	rec := logger.NewRecorder()
	bus := NewBus(4, rec)
	bus.Subscribe(SinkFunc{ID: "panics", Fn: func(Publication) error { panic("bad sink") }})
	bus.Subscribe(SinkFunc{ID: "fails", Fn: func(Publication) error { return errors.New("disk full") }})
	ok := &collector{}
	bus.Subscribe(ok)

	bus.Publish(FramePublication(testFrame(3)))
	bus.Shutdown()

	assert.Len(t, ok.kinds(), 1)
	errorsLogged := 0
	for _, e := range rec.Entries() {
		if e.Level == logger.ErrorLevel {
			errorsLogged++
		}
	}
	assert.Equal(t, 2, errorsLogged)
}

func TestJSONLinesSinkWritesRecords(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLinesSink(&buf)

	f := testFrame(9)
	th := models.Thresholds{Low: [3]float64{1, 2, 3}, High: [3]float64{4, 5, 6}}
	p := ThresholdsPublication(f, th)
	p.Session = "s-1"
	require.NoError(t, sink.Handle(p))
	require.NoError(t, sink.Handle(FramePublication(f)), "frames are not recorded")

	sc := bufio.NewScanner(&buf)
	require.True(t, sc.Scan())
	var got Record
	require.NoError(t, json.Unmarshal(sc.Bytes(), &got))

	want := Record{
		Session: "s-1",
		Kind:    "color_balance_thresholds",
		Seq:     9,
		Stamp:   f.Stamp,
		Values:  [6]float64{1, 2, 3, 4, 5, 6},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, sc.Scan())
}
