//go:build !linux

package vaapi

import "errors"

var errNoLibVA = errors.New("libva requires linux")

func loadLibVA() error { return errNoLibVA }

func openDisplay(string) (display, error) { return nil, errNoLibVA }
