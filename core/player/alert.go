package player

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// AlertType names a locally stored prompt sound.
type AlertType int

const (
	AlertPowerOn AlertType = iota
	AlertNotActive
	AlertNetworkConfig
	AlertNetworkConnected
	AlertNetworkFail
	AlertNetworkDisconnect
	AlertBatteryLow
	AlertPleaseAgain
	AlertWakeup
	AlertLongKeyTalk
	AlertKeyTalk
	AlertWakeupTalk
	AlertFreeTalk
)

var alertNames = map[AlertType]string{
	AlertPowerOn:           "power_on",
	AlertNotActive:         "not_active",
	AlertNetworkConfig:     "network_config",
	AlertNetworkConnected:  "network_connected",
	AlertNetworkFail:       "network_fail",
	AlertNetworkDisconnect: "network_disconnect",
	AlertBatteryLow:        "battery_low",
	AlertPleaseAgain:       "please_again",
	AlertWakeup:            "wakeup",
	AlertLongKeyTalk:       "long_key_talk",
	AlertKeyTalk:           "key_talk",
	AlertWakeupTalk:        "wakeup_talk",
	AlertFreeTalk:          "free_talk",
}

func (a AlertType) String() string {
	if name, ok := alertNames[a]; ok {
		return name
	}
	return fmt.Sprintf("alert(%d)", int(a))
}

// ParseAlertType maps a name from String back to its AlertType.
func ParseAlertType(name string) (AlertType, bool) {
	for alert, n := range alertNames {
		if n == name {
			return alert, true
		}
	}
	return 0, false
}

// PlaybackID is the id alert playbacks run under.
func (a AlertType) PlaybackID() string {
	return fmt.Sprintf("alert_%d", int(a))
}

// PlayAlert starts playing the sound registered for alert and returns once
// it is buffered. If another playback is active the write is rejected with
// ErrIDMismatch.
func (p *Player) PlayAlert(ctx context.Context, alert AlertType) error {
	ctx, span := tracer.Start(ctx, "play alert")
	defer span.End()
	span.SetAttributes(attribute.String("alert", alert.String()))

	if p == nil {
		return ErrNotInitialized
	}

	sound, ok := p.options.alerts[alert]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownAlert, alert)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	id := alert.PlaybackID()
	if err := p.Start(id); err != nil {
		err = fmt.Errorf("failed to start alert playback: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := p.Write(ctx, id, sound, true); err != nil {
		err = fmt.Errorf("failed to write alert audio: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// PlayAlertSync plays alert and waits until playback is over or ctx is done.
func (p *Player) PlayAlertSync(ctx context.Context, alert AlertType) error {
	if err := p.PlayAlert(ctx, alert); err != nil {
		return err
	}

	ticker := time.NewTicker(p.options.pollInterval)
	defer ticker.Stop()
	for p.IsPlaying() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to wait for alert: %w", ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}
