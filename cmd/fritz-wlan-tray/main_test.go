package main

import (
	"reflect"
	"testing"
)

func TestTrayArgs(t *testing.T) {
	if got := trayArgs(nil); !reflect.DeepEqual(got, []string{"tray"}) {
		t.Errorf("trayArgs(nil) = %v", got)
	}
	args := []string{"settings", "--config-dir", "/tmp/cfg"}
	if got := trayArgs(args); !reflect.DeepEqual(got, args) {
		t.Errorf("trayArgs(%v) = %v", args, got)
	}
}
