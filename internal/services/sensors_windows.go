//go:build windows

package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/go-ole/go-ole"
	"github.com/yusufpapurcu/wmi"

	"sysmonitor/internal/models"
)

const (
	// sFalse is returned by CoInitializeEx when COM is already initialized on the thread.
	sFalse = 0x00000001
	// wbemInvalidNamespace is returned when the sensor provider is not running.
	wbemInvalidNamespace = 0x8004100E
	wbemInvalidClass     = 0x80041010
)

// lhmSensor mirrors the columns selected from the LibreHardwareMonitor Sensor class
type lhmSensor struct {
	Name  string
	Value float32
}

// WMISensorSource sweeps every sensor LibreHardwareMonitor publishes over WMI
type WMISensorSource struct {
	namespace string
}

// NewSensorSource returns the WMI sensor source for the given namespace
func NewSensorSource(namespace string) SensorSource {
	return &WMISensorSource{namespace: namespace}
}

// Sensors initializes COM for the calling thread, runs one query and
// releases COM again before returning.
func (s *WMISensorSource) Sensors(ctx context.Context) ([]models.SensorReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			return nil, fmt.Errorf("com init: %w", err)
		}
	}
	defer ole.CoUninitialize()

	var rows []lhmSensor
	if err := wmi.QueryNamespace("SELECT Name, Value FROM Sensor", &rows, s.namespace); err != nil {
		if isMissingProvider(err) {
			return nil, fmt.Errorf("wmi namespace %s: %w", s.namespace, ErrSourceUnavailable)
		}
		return nil, fmt.Errorf("wmi sensor query: %w", err)
	}

	readings := make([]models.SensorReading, 0, len(rows))
	for _, row := range rows {
		readings = append(readings, models.SensorReading{
			Name:  row.Name,
			Value: models.FloatValue(float64(row.Value)),
		})
	}
	return models.DedupeSensors(readings), nil
}

func isMissingProvider(err error) bool {
	var oleErr *ole.OleError
	if !errors.As(err, &oleErr) {
		return false
	}
	// ConnectServer failures arrive as DISP_E_EXCEPTION with the WBEM code in the excepinfo.
	if sub, ok := oleErr.SubError().(interface{ SCODE() uint32 }); ok {
		code := sub.SCODE()
		return code == wbemInvalidNamespace || code == wbemInvalidClass
	}
	code := uint32(oleErr.Code())
	return code == wbemInvalidNamespace || code == wbemInvalidClass
}
