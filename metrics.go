package synchrophasor

// MetricsRecorder receives operational events from the PMU server. The
// library only calls the interface; no implementation ships in this
// repository.
type MetricsRecorder interface {
	RecordClientConnected()
	RecordClientDisconnected()
	RecordCommand(cmdType string)
	RecordDataFrameSent(size int)
	RecordConfigFrameSent(size int)
	RecordHeaderFrameSent(size int)
	RecordBytesReceived(size int)
	RecordFrameError(errorType string)
	UpdateDataFrameRate(rate float64)
}
