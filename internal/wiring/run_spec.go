package wiring

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"autopsy/internal/artifact"
	"autopsy/internal/registry"
	"autopsy/internal/scanprofile"
)

var _ = ginkgo.Describe("ScanFile", func() {
	ginkgo.It("registers, builds the overview, and ranks anomaly windows", func() {
		dir := ginkgo.GinkgoT().TempDir()
		store := artifact.NewStore(filepath.Join(dir, ".autopsy"))
		reg, err := registry.Open(store)
		gomega.Expect(err).To(gomega.Succeed())
		defer reg.Close()

		csvPath := filepath.Join(dir, "drive.csv")
		gomega.Expect(os.WriteFile(csvPath, []byte(twoSignalCapture()), 0644)).To(gomega.Succeed())

		profile := scanprofile.Profile{}
		res, err := ScanFile(store, reg, csvPath, "bench run", profile)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(res.CacheHit).To(gomega.BeFalse())
		gomega.Expect(res.MeasurementID).To(gomega.HavePrefix("m_"))

		// The rpm plateau and the pressure step each cut one window.
		gomega.Expect(res.Windows).To(gomega.HaveLen(2))
		bounds := make([][2]int64, 0, 2)
		for _, w := range res.Windows {
			bounds = append(bounds, [2]int64{w.StartBucket, w.EndBucket})
		}
		gomega.Expect(bounds).To(gomega.ContainElement([2]int64{20, 29}))
		gomega.Expect(bounds).To(gomega.ContainElement([2]int64{50, 50}))

		gomega.Expect(res.PerSignal["rpm"].FlatlineMaxRun).To(gomega.Equal(10))
		gomega.Expect(res.PerSignal["pressure"].SpikeMadZMax).To(gomega.BeNumerically(">=", 5))
		gomega.Expect(res.TimestampChecks.Monotonic).To(gomega.BeTrue())
		gomega.Expect(res.TimestampChecks.GapCount).To(gomega.Equal(0))

		// A second scan of the same file and profile replays the artifact.
		res2, err := ScanFile(store, reg, csvPath, "bench run", profile)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(res2.CacheHit).To(gomega.BeTrue())
		gomega.Expect(res2.Key).To(gomega.Equal(res.Key))
		gomega.Expect(res2.Windows).To(gomega.Equal(res.Windows))
	})
})

// twoSignalCapture is a 60-second 1 Hz capture with two rows per second.
// rpm climbs steadily but plateaus on seconds 20..29; pressure alternates
// around zero and steps up by 100 at second 50.
func twoSignalCapture() string {
	var sb strings.Builder
	sb.WriteString("timestamp,rpm,pressure\n")
	for b := 0; b < 60; b++ {
		rpmLo, rpmHi := float64(b), float64(b)+0.5
		if b >= 20 && b <= 29 {
			rpmLo, rpmHi = 5, 5
		}
		p := 0.1 * float64(b%2)
		if b >= 50 {
			p += 100
		}
		fmt.Fprintf(&sb, "%d,%g,%g\n", b, rpmLo, p-0.025)
		fmt.Fprintf(&sb, "%d.5,%g,%g\n", b, rpmHi, p+0.025)
	}
	return sb.String()
}
