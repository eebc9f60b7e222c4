package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/bulldogs/rpetracker/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":4025")
			convey.So(cfg.Timezone, convey.ShouldEqual, "America/Chicago")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1_024)
			convey.So(cfg.WriterCount, convey.ShouldEqual, 1)
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverCSV)
			convey.So(cfg.CSVPath, convey.ShouldEqual, "responses.csv")
			convey.So(cfg.AcuteWindow, convey.ShouldEqual, 7)
			convey.So(cfg.ElevatedRatio, convey.ShouldEqual, 1.5)
			convey.So(cfg.VeryHighRatio, convey.ShouldEqual, 2.0)
			convey.So(cfg.WorkloadParallelism, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":       func(c *config.Config) { c.Addr = " " },
			"zero window":      func(c *config.Config) { c.AcuteWindow = 0 },
			"inverted ratios":  func(c *config.Config) { c.ElevatedRatio, c.VeryHighRatio = 2.5, 2.0 },
			"bad timezone":     func(c *config.Config) { c.Timezone = "Mars/Olympus" },
			"unknown driver":   func(c *config.Config) { c.StoreDriver = "mongo" },
			"sqlite no dsn":    func(c *config.Config) { c.StoreDriver = config.DriverSQLite },
			"sheets no id":     func(c *config.Config) { c.ReportSource = config.SourceSheets },
			"unknown source":   func(c *config.Config) { c.ReportSource = "ftp" },
			"redis no addr":    func(c *config.Config) { c.NotifyDriver = config.NotifyRedis },
			"unknown notifier": func(c *config.Config) { c.NotifyDriver = "pigeon" },
			"csv without path": func(c *config.Config) { c.CSVPath = "" },
		}

		for name, mutate := range cases {
			convey.Convey("Then "+name+" is rejected", func() {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given a config with a valid sql store", t, func() {
		cfg := config.New()
		cfg.StoreDriver = config.DriverSQLite
		cfg.SQLDSN = "file:rpe.db"

		convey.So(cfg.Validate(), convey.ShouldBeNil)
		convey.So(cfg.Location().String(), convey.ShouldEqual, "America/Chicago")
	})
}
