package bot

import (
	"strings"

	"kinobot/internal/texts"
)

// Callback payloads understood by the dispatcher.
const (
	callbackLangPrefix    = "lang_"
	callbackCheckSub      = "check_subscription"
	callbackInstagramDone = "instagram_followed"
	callbackSkipSub       = "skip_subscription"
	callbackBackToSub     = "back_to_subscription"
	callbackAdminAdd      = "admin_add"
	callbackAdminList     = "admin_list"
	callbackAdminStats    = "admin_stats"
	callbackAdminClose    = "admin_close"
)

func languageKeyboard(tc *texts.Catalog) *Keyboard {
	rows := make([][]Button, 0, len(tc.Languages()))
	for _, code := range tc.Languages() {
		rows = append(rows, []Button{{
			Label: tc.Name(code),
			Data:  callbackLangPrefix + code,
		}})
	}
	return &Keyboard{Rows: rows}
}

func subscriptionKeyboard(tc *texts.Catalog, lang, channelURL, instagram string) *Keyboard {
	rows := make([][]Button, 0, 4)
	if channelURL != "" {
		rows = append(rows, []Button{{Label: tc.Get(lang, "join_channel"), URL: channelURL}})
	}
	if instagram != "" {
		rows = append(rows, []Button{{Label: tc.Get(lang, "follow_instagram"), URL: instagramURL(instagram)}})
	}
	rows = append(rows,
		[]Button{{Label: tc.Get(lang, "check_subscription"), Data: callbackCheckSub}},
		[]Button{{Label: tc.Get(lang, "skip_subscription"), Data: callbackSkipSub}},
	)
	return &Keyboard{Rows: rows}
}

func instagramFollowKeyboard(tc *texts.Catalog, lang, instagram string) *Keyboard {
	rows := make([][]Button, 0, 3)
	if instagram != "" {
		rows = append(rows, []Button{{Label: tc.Get(lang, "follow_instagram"), URL: instagramURL(instagram)}})
	}
	rows = append(rows,
		[]Button{{Label: tc.Get(lang, "check_subscription"), Data: callbackInstagramDone}},
		[]Button{{Label: tc.Get(lang, "back"), Data: callbackBackToSub}},
	)
	return &Keyboard{Rows: rows}
}

func adminKeyboard(tc *texts.Catalog, lang string) *Keyboard {
	return &Keyboard{Rows: [][]Button{
		{{Label: tc.Get(lang, "add_movie_btn"), Data: callbackAdminAdd}},
		{{Label: tc.Get(lang, "list_movies_btn"), Data: callbackAdminList}},
		{{Label: tc.Get(lang, "stats_btn"), Data: callbackAdminStats}},
		{{Label: tc.Get(lang, "close"), Data: callbackAdminClose}},
	}}
}

// instagramURL accepts either a full URL or a handle ("@kinobot" / "kinobot").
func instagramURL(value string) string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}
	return "https://instagram.com/" + strings.TrimPrefix(value, "@")
}
