package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	orchestration "github.com/koscakluka/ema-link/core"
	"github.com/koscakluka/ema-link/core/audio/miniaudio"
	"github.com/koscakluka/ema-link/core/audio/portaudio"
	"github.com/koscakluka/ema-link/core/player"
	"github.com/koscakluka/ema-link/core/transport/websocket"
	"github.com/koscakluka/ema-link/internal/config"
)

const logFileName = "ema-link.log"

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to the agent and start the interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd, opts)
		},
	}
}

func runAgent(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(opts.debug || cfg.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	workMode, err := orchestration.ParseWorkMode(cfg.WorkMode)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	audioClient, err := miniaudio.NewClient()
	if err != nil {
		return err
	}
	defer audioClient.Close()

	var sink player.Sink = audioClient
	if cfg.Output == config.OutputPortaudio {
		portaudioClient, err := portaudio.NewClient(cfg.Player.FramesPerBuffer)
		if err != nil {
			return err
		}
		defer portaudioClient.Close()
		sink = portaudioClient
	}

	// o is assigned before anything below can call back into it.
	var o *orchestration.Orchestrator
	var program *tea.Program
	send := func(msg tea.Msg) {
		if program != nil {
			program.Send(msg)
		}
	}

	alertOpts, err := alertOptions(cfg.Alerts)
	if err != nil {
		return err
	}
	playerOpts := append([]player.Option{
		player.WithBufferSize(cfg.Player.BufferSize),
		player.WithStallTimeout(cfg.Player.StallTimeout),
		player.WithStateChangeCallback(func(transition player.Transition) {
			o.OnPlaybackTransition(transition)
		}),
	}, alertOpts...)
	audioPlayer, err := player.New(sink, playerOpts...)
	if err != nil {
		return err
	}

	client, err := websocket.New(cfg.ServerURL,
		websocket.WithAPIKey(cfg.APIKey),
		websocket.WithDeviceID(cfg.DeviceID),
		websocket.WithLinkCallbacks(
			func(ctx context.Context) error {
				err := o.Connect(ctx)
				send(onlineMsg(err == nil))
				if err != nil {
					send(errMsg{err: err})
				}
				return err
			},
			func() {
				o.Disconnect()
				send(onlineMsg(false))
			},
		),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	o, err = orchestration.NewOrchestrator(client, audioPlayer,
		orchestration.WithWorkMode(workMode),
		orchestration.WithAudioInput(audioClient),
		orchestration.WithConnectAlert(true),
	)
	if err != nil {
		return err
	}
	defer o.Close()

	recorder := newUploadRecorder(cfg.RecordDir, audioClient.CaptureFormat())
	program = tea.NewProgram(newModel(ctx, &recordingTalker{o: o, recorder: recorder}), tea.WithContext(ctx))

	orchestrateErr := make(chan error, 1)
	go func() {
		orchestrateErr <- o.Orchestrate(ctx,
			orchestration.WithInputAudioCallback(recorder.write),
			orchestration.WithTranscriptionCallback(func(transcript string) { send(transcriptMsg(transcript)) }),
			orchestration.WithResponseStartCallback(func(string) { send(replyStartMsg{}) }),
			orchestration.WithResponseCallback(func(segment string) { send(replySegmentMsg(segment)) }),
			orchestration.WithResponseEndCallback(func(segment string) { send(replyEndMsg(segment)) }),
			orchestration.WithEmotionCallback(func(name, text string) { send(emotionMsg{name: name, text: text}) }),
			orchestration.WithChatStateChangedCallback(func(isChatting bool) { send(chatStateMsg(isChatting)) }),
		)
	}()

	go func() {
		if err := client.Connect(ctx); err != nil {
			slog.Error("failed to connect to agent", "error", err)
			send(errMsg{err: err})
		}
	}()

	_, runErr := program.Run()
	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		runErr = nil
	}

	if _, err := recorder.stop(); err != nil {
		slog.Warn("failed to finalize recording", "error", err)
	}
	cancel()
	err = errors.Join(runErr, o.Close())
	if oErr := <-orchestrateErr; oErr != nil && !errors.Is(oErr, context.Canceled) {
		err = errors.Join(err, oErr)
	}
	return err
}

// recordingTalker mirrors every upload into the recorder.
type recordingTalker struct {
	o        *orchestration.Orchestrator
	recorder *uploadRecorder
}

func (t *recordingTalker) StartTalking(ctx context.Context) error {
	if err := t.recorder.start(); err != nil {
		slog.Warn("failed to start recording", "error", err)
	}
	if err := t.o.StartTalking(ctx); err != nil {
		_, _ = t.recorder.stop()
		return err
	}
	return nil
}

func (t *recordingTalker) StopTalking(ctx context.Context) error {
	err := t.o.StopTalking(ctx)
	path, recErr := t.recorder.stop()
	if recErr != nil {
		slog.Warn("failed to finalize recording", "error", recErr)
	} else if path != "" {
		slog.Debug("upload recorded", "path", path)
	}
	return err
}

func alertOptions(alerts map[string]string) ([]player.Option, error) {
	opts := make([]player.Option, 0, len(alerts))
	for name, path := range alerts {
		alert, ok := player.ParseAlertType(name)
		if !ok {
			return nil, fmt.Errorf("unknown alert %q", name)
		}
		sound, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read alert %q: %w", name, err)
		}
		opts = append(opts, player.WithAlertSound(alert, sound))
	}
	return opts, nil
}

func setupLogging(debug bool) (func(), error) {
	if !debug {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return func() {}, nil
	}

	file, err := os.OpenFile(logFileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return func() { _ = file.Close() }, nil
}
