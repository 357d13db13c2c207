// Package version хранит имя и версию приложения. Version переопределяется при сборке:
//
//	go build -ldflags "-X tg-stats/internal/support/version.Version=1.2.3"
package version

var (
	Name    = "tg-stats"
	Version = "dev"
)
