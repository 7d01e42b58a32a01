package metrics

import "time"

// Noop は全ての記録を破棄するRecorder。テストやメトリクス無効時に使用する。
type Noop struct{}

// NewNoop はNoopを返す。
func NewNoop() Recorder {
	return Noop{}
}

func (Noop) RecordGeneration(string, string)            {}
func (Noop) RecordImageFallback(string)                 {}
func (Noop) RecordUpstreamLatency(string, time.Duration) {}
func (Noop) RecordSessionCreated()                      {}
func (Noop) RecordContentDeleted()                      {}
func (Noop) RecordArchive(string)                       {}
func (Noop) RecordHTTPStatus(int)                       {}
