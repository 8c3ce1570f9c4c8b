package points_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/salto/internal/domain/points"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given decimal strings", t, func() {
		Convey("When parsing well-formed values", func() {
			cases := map[string]int64{
				"0":      0,
				"5.3":    5300,
				"5.30":   5300,
				"5.300":  5300,
				"8.35":   8350,
				"10":     10000,
				"10.000": 10000,
				"0.5":    500,
				".5":     500,
				"-1.2":   -1200,
				"+2.001": 2001,
			}
			for in, want := range cases {
				p, err := points.Parse(in)
				So(err, ShouldBeNil)
				So(p.Thousandths(), ShouldEqual, want)
			}
		})

		Convey("When parsing malformed values", func() {
			for _, in := range []string{"", ".", "1.2345", "abc", "1.2.3", "1,5"} {
				_, err := points.Parse(in)
				So(err, ShouldNotBeNil)
			}
		})
	})
}

func TestFormatting(t *testing.T) {
	Convey("Given fixed-point values", t, func() {
		Convey("Then String always carries three fractional digits", func() {
			So(points.FromThousandths(5400).String(), ShouldEqual, "5.400")
			So(points.FromThousandths(13750).String(), ShouldEqual, "13.750")
			So(points.FromThousandths(0).String(), ShouldEqual, "0.000")
			So(points.FromThousandths(7).String(), ShouldEqual, "0.007")
			So(points.FromThousandths(-500).String(), ShouldEqual, "-0.500")
		})

		Convey("Then JSON round-trips without drift", func() {
			p := points.MustParse("8.350")
			b, err := json.Marshal(p)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, "8.350")

			var back points.P
			So(json.Unmarshal(b, &back), ShouldBeNil)
			So(back, ShouldEqual, p)

			// Quoted decimals are accepted too.
			So(json.Unmarshal([]byte(`"5.4"`), &back), ShouldBeNil)
			So(back, ShouldEqual, points.MustParse("5.400"))
		})
	})
}

func TestMean(t *testing.T) {
	Convey("Given value lists", t, func() {
		Convey("When averaging an empty list", func() {
			So(points.Mean(nil), ShouldEqual, points.Zero)
		})

		Convey("When averaging divides evenly", func() {
			vals := []points.P{points.MustParse("5.300"), points.MustParse("5.500")}
			So(points.Mean(vals), ShouldEqual, points.MustParse("5.400"))
		})

		Convey("When averaging needs rounding", func() {
			// (1.000 + 1.001 + 1.001) / 3 = 1.000666... -> 1.001
			vals := []points.P{
				points.MustParse("1.000"),
				points.MustParse("1.001"),
				points.MustParse("1.001"),
			}
			So(points.Mean(vals), ShouldEqual, points.MustParse("1.001"))
		})

		Convey("When the remainder is exactly half", func() {
			// (1.001 + 1.002) / 2 = 1.0015 -> 1.002, half away from zero
			vals := []points.P{points.MustParse("1.001"), points.MustParse("1.002")}
			So(points.Mean(vals), ShouldEqual, points.MustParse("1.002"))
		})
	})
}

func TestSum(t *testing.T) {
	Convey("Given penalty-style values", t, func() {
		vals := []points.P{points.MustParse("0.5"), points.MustParse("0.3")}
		So(points.Sum(vals), ShouldEqual, points.MustParse("0.800"))
		So(points.Sum(nil), ShouldEqual, points.Zero)
	})
}
