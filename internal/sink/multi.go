package sink

import "github.com/WoCha-FR/mqtt4netatmo/internal/bridge"

// Multi fans each record out to every configured sink, in order. The first
// failure stops the fan-out and propagates.
type Multi []bridge.Sink

var _ bridge.Sink = (Multi)(nil)

func (m Multi) Emit(rec bridge.Record) error {
	for _, s := range m {
		if err := s.Emit(rec); err != nil {
			return err
		}
	}
	return nil
}
