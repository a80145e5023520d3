package collector

import (
	"math"

	"github.com/shirou/gopsutil/v3/cpu"
)

// CPUUsage 计算各核 100 - idle/total*100 的平均值。
// prev 中有同名核时按两次读数的差值计算，否则退化为累计值。
func CPUUsage(prev, cur []cpu.TimesStat) float64 {
	prevByName := make(map[string]cpu.TimesStat, len(prev))
	for _, p := range prev {
		prevByName[p.CPU] = p
	}

	var sum float64
	var cores int
	for _, c := range cur {
		total := totalTicks(c)
		idle := c.Idle
		if p, ok := prevByName[c.CPU]; ok {
			total -= totalTicks(p)
			idle -= p.Idle
		}
		if total <= 0 {
			continue
		}
		if idle < 0 {
			idle = 0
		}
		sum += 100 - idle/total*100
		cores++
	}
	if cores == 0 {
		return 0
	}
	return round2(sum / float64(cores))
}

func totalTicks(t cpu.TimesStat) float64 {
	return t.User + t.Nice + t.System + t.Idle + t.Iowait + t.Irq + t.Softirq + t.Steal
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
