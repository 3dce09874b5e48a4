package httpclient

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
)

const (
	DefaultRetryCount   = 3
	DefaultRetryWait    = 2 * time.Second
	DefaultRetryMaxWait = 10 * time.Second
	DefaultTimeout      = 2 * time.Minute
)

// HclogAdapter forwards resty log output to an hclog.Logger.
type HclogAdapter struct {
	logger hclog.Logger
}

func NewHclogAdapter(logger hclog.Logger) resty.Logger {
	return &HclogAdapter{logger: logger}
}

func (a *HclogAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error(fmt.Sprintf(format, v...))
}

func (a *HclogAdapter) Warnf(format string, v ...interface{}) {
	a.logger.Warn(fmt.Sprintf(format, v...))
}

func (a *HclogAdapter) Debugf(format string, v ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, v...))
}

// New returns a resty client with retries and the given logger attached.
func New(logger hclog.Logger) *resty.Client {
	client := resty.New()
	if logger != nil {
		client.SetLogger(NewHclogAdapter(logger))
	}
	client.
		SetRetryCount(DefaultRetryCount).
		SetRetryWaitTime(DefaultRetryWait).
		SetRetryMaxWaitTime(DefaultRetryMaxWait).
		SetTimeout(DefaultTimeout).
		SetHeader("User-Agent", "vulnscan-adk")
	return client
}
