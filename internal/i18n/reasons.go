package i18n

// ReportReasonOthers is used for unknown reason codes.
const ReportReasonOthers = "099"

var reportReasons = map[string]map[string]string{
	"ja": {
		"001": "商業目的、スパム",
		"002": "個人情報を含む",
		"003": "センシティブなコンテンツ（暴力、露骨な性的表現等）",
		"004": "誹謗中傷",
		"005": "テロリズムや自殺・自傷行為の扇動、助長",
		"006": "誤った情報、デマ",
		"099": "その他",
	},
	"en": {
		"001": "Commercial purpose or spam",
		"002": "Contains personal information",
		"003": "Sensitive content (violence, explicit sexual content, etc.)",
		"004": "Slander",
		"005": "Incitement or promotion of terrorism, suicide or self-harm",
		"006": "False information or rumor",
		"099": "Others",
	},
}

// ReportReasonTitle resolves a 3-character reason code.
func ReportReasonTitle(locale, code string) string {
	titles := reportReasons[NormalizeLocale(locale)]
	if title, ok := titles[code]; ok {
		return title
	}
	return titles[ReportReasonOthers]
}
