// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util

import (
	"github.com/golang/glog"
	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		glog.Warningf("locale: %v", err)
	}
	if len(locales) == 0 {
		locales = []string{"en-US"}
	}
	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// Printf prints to stdout formatting numbers according to the user's locale.
func Printf(format string, args ...any) {
	printer.Printf(format, args...)
}
