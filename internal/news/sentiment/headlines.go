package sentiment

var symbolHeadlines = map[Class][]string{
	ClassStrongPositive: {
		"%s soars on strong earnings report",
		"%s surges as analysts upgrade outlook",
		"%s hits record high on bullish momentum",
		"Investors pile into %s after blowout quarter",
	},
	ClassMildPositive: {
		"%s edges higher in steady trading",
		"%s gains as buyers return",
		"%s rises on upbeat guidance",
	},
	ClassNeutral: {
		"%s trades flat as investors wait for catalysts",
		"%s holds steady in quiet session",
		"Little movement for %s today",
	},
	ClassMildNegative: {
		"%s slips amid profit taking",
		"%s edges lower on sector concerns",
		"%s dips as momentum fades",
	},
	ClassStrongNegative: {
		"%s plunges after earnings miss",
		"%s tumbles on weak guidance",
		"Sell-off hits %s as concerns mount",
		"%s crashes on downgrade",
	},
}

var marketHeadlines = map[Class][]string{
	ClassStrongPositive: {
		"Markets rally as investor confidence surges",
		"Bull run: broad gains across all sectors",
	},
	ClassMildPositive: {
		"Stocks close modestly higher",
	},
	ClassNeutral: {
		"Markets end mixed in choppy session",
	},
	ClassMildNegative: {
		"Stocks drift lower in cautious trade",
	},
	ClassStrongNegative: {
		"Market crash: panic selling grips Wall Street",
		"Stocks tumble as recession fears grow",
	},
}
