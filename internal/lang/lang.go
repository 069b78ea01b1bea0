// Package lang resolves display strings for overview items.
package lang

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Keys of the English bundle.
const (
	Posts                    = "posts"
	UnreadPosts              = "unreadposts"
	DueDate                  = "duedate"
	ForumType                = "forumtype"
	GeneralForum             = "generalforum"
	SingleForum              = "singleforum"
	EachUserForum            = "eachuserforum"
	QandAForum               = "qandaforum"
	BlogForum                = "blogforum"
	NameNews                 = "namenews"
	Tracking                 = "tracking"
	TrackToggleLabel         = "tracktogglelabel"
	Subscribed               = "subscribed"
	SubscribeToggleLabel     = "subscribetogglelabel"
	DigestType               = "digesttype"
	EmailDigestDefault       = "emaildigestdefault"
	EmailDigestOffShort      = "emaildigestoffshort"
	EmailDigestCompleteShort = "emaildigestcompleteshort"
	EmailDigestSubjectsShort = "emaildigestsubjectsshort"
	Discussions              = "discussions"
	Actions                  = "actions"
	ViewResults              = "viewresults"
	H5PType                  = "h5ptype"
	UnknownType              = "unknowntype"
	TotalAttempts            = "totalattempts"
	MyAttempts               = "myattempts"
	Attempted                = "attempted"
	AttemptedContent         = "attemptedcontent"
)

var english = map[string]string{
	Posts:                    "Posts",
	UnreadPosts:              "Unread posts",
	DueDate:                  "Due date",
	ForumType:                "Forum type",
	GeneralForum:             "Standard forum for general use",
	SingleForum:              "A single simple discussion",
	EachUserForum:            "Each person posts one discussion",
	QandAForum:               "Q and A forum",
	BlogForum:                "Standard forum displayed in a blog-like format",
	NameNews:                 "Announcements",
	Tracking:                 "Tracking",
	TrackToggleLabel:         "Track unread posts",
	Subscribed:               "Subscribed",
	SubscribeToggleLabel:     "Subscription",
	DigestType:               "Digest type",
	EmailDigestDefault:       "Default (%s)",
	EmailDigestOffShort:      "No digest",
	EmailDigestCompleteShort: "Complete",
	EmailDigestSubjectsShort: "Subjects",
	Discussions:              "Discussions",
	Actions:                  "Actions",
	ViewResults:              "View results",
	H5PType:                  "H5P type",
	UnknownType:              "Unknown type",
	TotalAttempts:            "Total attempts",
	MyAttempts:               "My attempts",
	Attempted:                "Students who attempted",
	AttemptedContent:         "<strong>%s</strong> of %s",
}

var printer = newPrinter()

func newPrinter() *message.Printer {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range english {
		if err := builder.SetString(language.English, key, msg); err != nil {
			panic(err)
		}
	}
	return message.NewPrinter(language.English, message.Catalog(builder))
}

// Get returns the display string for key, formatting args into it.
func Get(key string, args ...interface{}) string {
	return printer.Sprintf(key, args...)
}
