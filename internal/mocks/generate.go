// Package mocks holds gomock doubles for the monitor's collaborators.
//
// To regenerate after an interface changes:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(GinkgoT())
//	prober := mocks.NewMockProber(ctrl)
//	prober.EXPECT().Probe(gomock.Any(), gomock.Any()).Return(probe.Response{StatusCode: 200}, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=prober_mock.go github.com/angeloszaimis/uptime-monitor/internal/probe Prober
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=notifier_mock.go github.com/angeloszaimis/uptime-monitor/internal/notify Notifier
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=check_repository_mock.go github.com/angeloszaimis/uptime-monitor/internal/monitor CheckRepository,OutcomeLog
