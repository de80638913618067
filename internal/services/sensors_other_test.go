//go:build !windows

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v3/host"
)

func TestHwmonSensorSource(t *testing.T) {
	t.Run("readings keep source order", func(t *testing.T) {
		src := &HwmonSensorSource{read: func(context.Context) ([]host.TemperatureStat, error) {
			return []host.TemperatureStat{
				{SensorKey: "k10temp_tctl", Temperature: 55.678},
				{SensorKey: "nvme_composite", Temperature: 38},
			}, nil
		}}
		got, err := src.Sensors(context.Background())
		if err != nil {
			t.Fatalf("Sensors: %v", err)
		}
		if len(got) != 2 || got[0].Name != "k10temp_tctl" || got[1].Name != "nvme_composite" {
			t.Fatalf("readings = %+v", got)
		}
		if f, ok := got[0].Value.Float(); !ok || f != 55.678 {
			t.Errorf("value = %v, %v", f, ok)
		}
	})

	t.Run("partial warnings keep readings", func(t *testing.T) {
		src := &HwmonSensorSource{read: func(context.Context) ([]host.TemperatureStat, error) {
			return []host.TemperatureStat{{SensorKey: "acpitz", Temperature: 27.8}},
				&host.Warnings{List: []error{errors.New("hwmon3: permission denied")}}
		}}
		got, err := src.Sensors(context.Background())
		if err != nil {
			t.Fatalf("Sensors: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("readings = %+v", got)
		}
	})

	t.Run("no sensors is unavailable", func(t *testing.T) {
		src := &HwmonSensorSource{read: func(context.Context) ([]host.TemperatureStat, error) {
			return nil, nil
		}}
		_, err := src.Sensors(context.Background())
		if !errors.Is(err, ErrSourceUnavailable) {
			t.Errorf("err = %v, want ErrSourceUnavailable", err)
		}
	})

	t.Run("hard failure is not unavailable", func(t *testing.T) {
		boom := errors.New("read /sys: input/output error")
		src := &HwmonSensorSource{read: func(context.Context) ([]host.TemperatureStat, error) {
			return nil, boom
		}}
		_, err := src.Sensors(context.Background())
		if !errors.Is(err, boom) || errors.Is(err, ErrSourceUnavailable) {
			t.Errorf("err = %v, want wrapped query failure", err)
		}
	})
}
