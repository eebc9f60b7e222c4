package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestSubmission(t *testing.T) {
	convey.Convey("Given a submission", t, func() {
		sub := model.Submission{
			Identity: model.Identity{
				Email:     "  Jane.Doe@School.edu ",
				LastName:  " Doe",
				FirstName: "Jane ",
				Position:  "WR",
			},
			Intensity: " 7 ",
		}

		convey.Convey("When it is trimmed", func() {
			trimmed := sub.Trimmed()

			convey.Convey("Then every field loses its padding", func() {
				convey.So(trimmed.Email, convey.ShouldEqual, "Jane.Doe@School.edu")
				convey.So(trimmed.LastName, convey.ShouldEqual, "Doe")
				convey.So(trimmed.Intensity, convey.ShouldEqual, "7")
				convey.So(trimmed.Validate(), convey.ShouldBeNil)
			})

			convey.Convey("And the key is case-insensitive", func() {
				convey.So(trimmed.Key(), convey.ShouldEqual, "jane.doe@school.edu")
				convey.So(model.Key("JANE.DOE@school.edu "), convey.ShouldEqual, trimmed.Key())
			})
		})

		convey.Convey("When a required field is blank", func() {
			sub.Position = "  "
			err := sub.Validate()

			convey.Convey("Then validation names the field", func() {
				convey.So(errors.Is(err, model.ErrMissingField), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "position")
			})
		})

		convey.Convey("When the email has no at sign", func() {
			sub.Email = "jane"
			convey.So(errors.Is(sub.Validate(), model.ErrInvalidEmail), convey.ShouldBeTrue)
		})
	})
}

func TestNumber(t *testing.T) {
	convey.Convey("Given nullable numbers", t, func() {
		convey.Convey("Mean of no values is undefined", func() {
			convey.So(model.Mean(nil).Valid, convey.ShouldBeFalse)
			convey.So(model.Mean([]float64{2, 4}), convey.ShouldResemble, model.Some(3))
		})

		convey.Convey("Undefined numbers encode as null", func() {
			out, err := json.Marshal(struct {
				A model.Number `json:"a"`
				B model.Number `json:"b"`
			}{A: model.None, B: model.Some(6.5)})
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(out), convey.ShouldEqual, `{"a":null,"b":6.5}`)
		})

		convey.Convey("Null decodes to undefined", func() {
			var n model.Number
			convey.So(json.Unmarshal([]byte("null"), &n), convey.ShouldBeNil)
			convey.So(n.Valid, convey.ShouldBeFalse)
			convey.So(json.Unmarshal([]byte("4.25"), &n), convey.ShouldBeNil)
			convey.So(n, convey.ShouldResemble, model.Some(4.25))
		})
	})
}

func TestRiskState(t *testing.T) {
	convey.Convey("Given risk states", t, func() {
		convey.Convey("States are ordered by severity", func() {
			convey.So(model.InsufficientData < model.Normal, convey.ShouldBeTrue)
			convey.So(model.Elevated < model.VeryHigh, convey.ShouldBeTrue)
		})

		convey.Convey("Wire names parse back", func() {
			for _, s := range []model.RiskState{model.InsufficientData, model.Normal, model.Elevated, model.VeryHigh} {
				parsed, err := model.ParseRiskState(s.String())
				convey.So(err, convey.ShouldBeNil)
				convey.So(parsed, convey.ShouldEqual, s)
			}
		})

		convey.Convey("Unknown names are rejected", func() {
			_, err := model.ParseRiskState("catastrophic")
			convey.So(errors.Is(err, model.ErrUnknownRiskState), convey.ShouldBeTrue)
		})

		convey.Convey("States encode as text in JSON", func() {
			out, err := json.Marshal(model.WorkloadSample{State: model.VeryHigh})
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(out), convey.ShouldContainSubstring, `"state":"very_high"`)
		})
	})
}
