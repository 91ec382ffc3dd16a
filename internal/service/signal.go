// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

type signalSource interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

type stdLibSignalSource struct{}

func (stdLibSignalSource) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (stdLibSignalSource) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

// lifecycle receives foreground and background changes of the screen.
type lifecycle interface {
	Foreground()
	Background()
}

// HandleSignals moves the screen to the background on SIGUSR1 and back to the foreground on
// SIGUSR2.
func (s *Service) HandleSignals(ctx context.Context, sigChan chan os.Signal, target lifecycle) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGUSR1:
				s.logger.Info("received signal, pausing location updates", slog.String("signal", sig.String()))
				target.Background()
			case syscall.SIGUSR2:
				s.logger.Info("received signal, resuming location updates", slog.String("signal", sig.String()))
				target.Foreground()
			}
		}
	}
}
