package metrics

// NoopCollector is a no-op implementation of the Collector interface.
type NoopCollector struct{}

func (n *NoopCollector) ConnectionOpened(protocol string)        {}
func (n *NoopCollector) ConnectionClosed(protocol string)        {}
func (n *NoopCollector) CommandProcessed(protocol, command string) {}
func (n *NoopCollector) AuthAttempt(success bool)                {}
func (n *NoopCollector) MessageRetrieved()                       {}
func (n *NoopCollector) MessageSubmitted()                       {}
func (n *NoopCollector) MediaUploaded(mode string)                {}
