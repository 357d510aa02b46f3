package i18n

import (
	"html"
	"strconv"
	"strings"
	"time"
)

type EmailContent struct {
	Subject string
	Text    string
	HTML    string
}

type emailStrings struct {
	ContactSubject string
	ContactText    string
	ContactHTML    string

	ReportSubject string
	ReportText    string
	ReportHTML    string

	TimeLayout string
}

var emailTranslations = map[string]emailStrings{
	"ja": {
		ContactSubject: "ご意見・ご要望の投稿がありました。",
		ContactText:    "【ユーザーID】\n  {user_id}\n\n【ご意見・ご要望】\n  {text}\n",
		ContactHTML: "<p>【ユーザーID】<br>　{user_id}</p>" +
			"<p>【ご意見・ご要望】<br>　{text}</p>",

		ReportSubject: "投稿コンテンツへの通報がありました。",
		ReportText: "【ユーザーID】\n  {user_id}\n\n【通報理由】\n  {reason}\n\n【通報内容】\n  {content}\n\n" +
			"【通報対象のマイリスト】\n  作成者ID：{owner_id}\n  作成日時：{created_at}\n  更新日時：{updated_at}\n" +
			"  マイリストID：{list_id}\n  マイリスト名：{title}\n  トピック：\n{topics_text}",
		ReportHTML: "<p>【ユーザーID】<br>　{user_id}</p>" +
			"<p>【通報理由】<br>　{reason}</p>" +
			"<p>【通報内容】<br>　{content}</p>" +
			"<p>【通報対象のマイリスト】<br>" +
			"　作成者ID：{owner_id}<br>" +
			"　作成日時：{created_at}<br>" +
			"　更新日時：{updated_at}<br>" +
			"　マイリストID：{list_id}<br>" +
			"　マイリスト名：{title}<br>" +
			"　トピック：<br>{topics_html}</p>",

		TimeLayout: "2006-01-02 15:04:05",
	},
	"en": {
		ContactSubject: "New feedback was posted.",
		ContactText:    "User ID: {user_id}\n\nMessage:\n  {text}\n",
		ContactHTML: "<p><strong>User ID</strong><br>{user_id}</p>" +
			"<p><strong>Message</strong><br>{text}</p>",

		ReportSubject: "A list was reported.",
		ReportText: "User ID: {user_id}\nReason: {reason}\nDetails: {content}\n\n" +
			"Reported list\n  Owner ID: {owner_id}\n  Created: {created_at}\n  Updated: {updated_at}\n" +
			"  List ID: {list_id}\n  Title: {title}\n  Topics:\n{topics_text}",
		ReportHTML: "<p><strong>User ID</strong><br>{user_id}</p>" +
			"<p><strong>Reason</strong><br>{reason}</p>" +
			"<p><strong>Details</strong><br>{content}</p>" +
			"<p><strong>Reported list</strong><br>" +
			"Owner ID: {owner_id}<br>" +
			"Created: {created_at}<br>" +
			"Updated: {updated_at}<br>" +
			"List ID: {list_id}<br>" +
			"Title: {title}<br>" +
			"Topics:<br>{topics_html}</p>",

		TimeLayout: time.RFC3339,
	},
}

func emailStringsForLocale(locale string) emailStrings {
	if val, ok := emailTranslations[NormalizeLocale(locale)]; ok {
		return val
	}
	return emailTranslations[DefaultLocale]
}

func renderTemplate(tmpl string, values map[string]string) string {
	if tmpl == "" || len(values) == 0 {
		return tmpl
	}

	replacements := make([]string, 0, len(values)*2)
	for key, value := range values {
		replacements = append(replacements, "{"+key+"}", value)
	}
	return strings.NewReplacer(replacements...).Replace(tmpl)
}

// escapeAll returns a copy of values safe for the HTML templates.
func escapeAll(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = html.EscapeString(v)
	}
	return out
}

func ContactEmail(locale string, userID int64, text string) EmailContent {
	templates := emailStringsForLocale(locale)
	values := map[string]string{
		"user_id": strconv.FormatInt(userID, 10),
		"text":    text,
	}
	return EmailContent{
		Subject: templates.ContactSubject,
		Text:    renderTemplate(templates.ContactText, values),
		HTML:    renderTemplate(templates.ContactHTML, escapeAll(values)),
	}
}

// ReportedList is the part of a reported list shown to the operator.
type ReportedList struct {
	ID        int64
	OwnerID   int64
	Title     string
	Topics    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func ReportEmail(locale string, userID int64, reasonCode, content string, list ReportedList) EmailContent {
	templates := emailStringsForLocale(locale)
	values := map[string]string{
		"user_id":    strconv.FormatInt(userID, 10),
		"reason":     ReportReasonTitle(locale, reasonCode),
		"content":    content,
		"owner_id":   strconv.FormatInt(list.OwnerID, 10),
		"created_at": list.CreatedAt.Format(templates.TimeLayout),
		"updated_at": list.UpdatedAt.Format(templates.TimeLayout),
		"list_id":    strconv.FormatInt(list.ID, 10),
		"title":      list.Title,
	}

	var text, markup strings.Builder
	for _, topic := range list.Topics {
		text.WriteString("    " + topic + "\n")
		markup.WriteString("　　" + html.EscapeString(topic) + "<br>")
	}

	escaped := escapeAll(values)
	values["topics_text"] = text.String()
	escaped["topics_html"] = markup.String()

	return EmailContent{
		Subject: templates.ReportSubject,
		Text:    renderTemplate(templates.ReportText, values),
		HTML:    renderTemplate(templates.ReportHTML, escaped),
	}
}
