package recommend

import (
	"fmt"
	"math"

	"github.com/fitarena/fitpipe/internal/domain/types"
)

// analysis summarizes one subject's window for rule evaluation. Averages are
// NaN when the underlying metric was never observed.
type analysis struct {
	periods     int
	avgSteps    float64
	avgActive   float64
	avgCalories float64
	avgSleep    float64
	avgScore    float64
	slope       float64
	consistency float64
	maxSeverity float64
}

// rule is one entry in the fixed evaluation order. Triggers read the
// analysis only, so evaluation is a pure function of the window.
type rule struct {
	id          string
	category    types.Category
	priority    types.Priority
	base        float64
	trigger     func(a analysis) bool
	title       string
	describe    func(a analysis) string
	actionItems []string
}

// rules is evaluated top to bottom; safety rules come before improvement
// rules. The order is part of the output contract.
var rules = []rule{
	{
		id:       "anomaly-alert",
		category: types.CategoryRecovery,
		priority: types.PriorityHigh,
		base:     0.90,
		trigger:  func(a analysis) bool { return a.maxSeverity >= 1 },
		title:    "Review Unusual Readings",
		describe: func(a analysis) string {
			return fmt.Sprintf("One or more readings in this window deviate strongly from your baseline (severity %.1f). Rule out device errors or overexertion.", a.maxSeverity)
		},
		actionItems: []string{
			"Check whether the flagged days match unusual events",
			"Verify your tracker was worn and synced correctly",
			"Ease training intensity until readings normalize",
		},
	},
	{
		id:       "low-sleep",
		category: types.CategoryRecovery,
		priority: types.PriorityHigh,
		base:     0.85,
		trigger:  func(a analysis) bool { return !math.IsNaN(a.avgSleep) && a.avgSleep < 420 },
		title:    "Extend Your Sleep",
		describe: func(a analysis) string {
			return fmt.Sprintf("You average %.0f minutes of sleep; aim for at least 420. Recovery drives adaptation.", a.avgSleep)
		},
		actionItems: []string{
			"Set a consistent bedtime and wake time",
			"Avoid screens in the last hour before bed",
			"Keep the bedroom cool and dark",
		},
	},
	{
		id:       "low-steps",
		category: types.CategoryTraining,
		priority: types.PriorityHigh,
		base:     0.90,
		trigger:  func(a analysis) bool { return !math.IsNaN(a.avgSteps) && a.avgSteps < 5000 },
		title:    "Increase Daily Steps",
		describe: func(a analysis) string {
			return fmt.Sprintf("Your average of %.0f daily steps is below the recommended level. Aim for 10000 steps per day.", a.avgSteps)
		},
		actionItems: []string{
			"Take short walking breaks every hour",
			"Use stairs instead of elevators",
			"Take a 15-minute walk after meals",
		},
	},
	{
		id:       "moderate-steps",
		category: types.CategoryTraining,
		priority: types.PriorityMedium,
		base:     0.85,
		trigger:  func(a analysis) bool { return !math.IsNaN(a.avgSteps) && a.avgSteps >= 5000 && a.avgSteps < 10000 },
		title:    "Enhance Activity Level",
		describe: func(a analysis) string {
			return fmt.Sprintf("Good progress. Increase from %.0f to 15000 steps daily.", a.avgSteps)
		},
		actionItems: []string{
			"Add a 20-minute morning walk",
			"Find a walking partner or group",
			"Explore new routes to keep it interesting",
		},
	},
	{
		id:       "low-active-minutes",
		category: types.CategoryTraining,
		priority: types.PriorityHigh,
		base:     0.95,
		trigger:  func(a analysis) bool { return !math.IsNaN(a.avgActive) && a.avgActive < 30 },
		title:    "Boost Active Minutes",
		describe: func(a analysis) string {
			return fmt.Sprintf("Increase your daily active minutes from %.0f to at least 60.", a.avgActive)
		},
		actionItems: []string{
			"Schedule 30 minutes of moderate exercise daily",
			"Pick activities you enjoy, like swimming or cycling",
			"Split it into three 10-minute sessions if needed",
		},
	},
	{
		id:       "declining-trend",
		category: types.CategoryGeneral,
		priority: types.PriorityHigh,
		base:     0.80,
		trigger:  func(a analysis) bool { return a.slope < -100 },
		title:    "Reverse Declining Trend",
		describe: func(a analysis) string {
			return fmt.Sprintf("Your step count is dropping by about %.0f per day. Time to get back on track.", -a.slope)
		},
		actionItems: []string{
			"Set realistic, achievable daily goals",
			"Find an accountability partner",
			"Identify and address barriers to activity",
		},
	},
	{
		id:       "improving-trend",
		category: types.CategoryGeneral,
		priority: types.PriorityLow,
		base:     0.92,
		trigger:  func(a analysis) bool { return a.slope > 100 },
		title:    "Maintain Positive Momentum",
		describe: func(a analysis) string {
			return fmt.Sprintf("Your step count is climbing by about %.0f per day. Keep it up.", a.slope)
		},
		actionItems: []string{
			"Continue your current routine",
			"Gradually increase intensity",
			"Try new activities to prevent boredom",
		},
	},
	{
		id:       "inconsistent",
		category: types.CategoryRecovery,
		priority: types.PriorityMedium,
		base:     0.87,
		trigger:  func(a analysis) bool { return a.consistency < 40 },
		title:    "Improve Activity Consistency",
		describe: func(a analysis) string {
			return fmt.Sprintf("Your activity pattern is irregular (consistency %.0f/100). Regular activity is key to progress.", a.consistency)
		},
		actionItems: []string{
			"Create a weekly activity schedule",
			"Set consistent workout times",
			"Start with manageable goals",
		},
	},
	{
		id:       "low-performance",
		category: types.CategoryTraining,
		priority: types.PriorityHigh,
		base:     0.85,
		trigger:  func(a analysis) bool { return !math.IsNaN(a.avgScore) && a.avgScore < 50 },
		title:    "Structured Training Program",
		describe: func(a analysis) string {
			return fmt.Sprintf("Your performance score averages %.0f/100 and has room to grow with a structured approach.", a.avgScore)
		},
		actionItems: []string{
			"Follow a training plan or work with a coach",
			"Set specific, measurable goals",
			"Track progress weekly",
		},
	},
	{
		id:       "high-performance",
		category: types.CategoryTraining,
		priority: types.PriorityLow,
		base:     0.82,
		trigger:  func(a analysis) bool { return !math.IsNaN(a.avgScore) && a.avgScore > 70 },
		title:    "Advanced Performance Optimization",
		describe: func(a analysis) string {
			return fmt.Sprintf("You average %.0f/100 on performance. Consider advanced strategies.", a.avgScore)
		},
		actionItems: []string{
			"Experiment with periodization",
			"Add high-intensity interval training",
			"Focus on specific performance metrics",
		},
	},
	{
		id:       "low-fuel",
		category: types.CategoryNutrition,
		priority: types.PriorityMedium,
		base:     0.80,
		trigger:  func(a analysis) bool { return !math.IsNaN(a.avgCalories) && a.avgCalories < 1800 },
		title:    "Fuel Your Training",
		describe: func(a analysis) string {
			return fmt.Sprintf("Your average energy expenditure of %.0f kcal suggests low overall activity or under-reporting. Make sure intake matches your training load.", a.avgCalories)
		},
		actionItems: []string{
			"Plan balanced meals around training days",
			"Do not skip post-workout refueling",
			"Stay hydrated throughout the day",
		},
	},
	{
		id:       "baseline-recovery",
		category: types.CategoryRecovery,
		priority: types.PriorityMedium,
		base:     0.90,
		trigger:  func(a analysis) bool { return true },
		title:    "Optimize Recovery",
		describe: func(a analysis) string {
			return "Recovery is essential for performance improvement."
		},
		actionItems: []string{
			"Ensure 7-9 hours of quality sleep",
			"Include rest days in your routine",
			"Practice stretching or yoga",
		},
	},
}
