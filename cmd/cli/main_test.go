package main

import (
	"reflect"
	"strings"
	"testing"
)

func TestPrintUsage(t *testing.T) {
	// Renders the full help screen; panics here mean a style or
	// formatting regression.
	printUsage()
}

func TestParseIDArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []int
		wantErr string
	}{
		{name: "spaces", args: []string{"1", "3", "5"}, want: []int{1, 3, 5}},
		{name: "commas", args: []string{"1,3,5"}, want: []int{1, 3, 5}},
		{name: "comma with space", args: []string{"1,", "3"}, want: []int{1, 3}},
		{name: "mixed", args: []string{"1,3", "5"}, want: []int{1, 3, 5}},
		{name: "duplicates kept", args: []string{"2", "2"}, want: []int{2, 2}},
		{name: "empty", args: nil, want: nil},
		{name: "blank token skipped", args: []string{",,3"}, want: []int{3}},
		{name: "not a number", args: []string{"1", "three"}, wantErr: "not a number"},
		{name: "zero", args: []string{"0"}, wantErr: "must be positive"},
		{name: "negative", args: []string{"-4"}, wantErr: "must be positive"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseIDArgs(tc.args)
			if tc.wantErr != "" {
				if err == nil {
					t.Fatalf("parseIDArgs(%v) = %v, want error containing %q", tc.args, got, tc.wantErr)
				}
				if !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("error = %q, want it to contain %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseIDArgs(%v): %v", tc.args, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("parseIDArgs(%v) = %v, want %v", tc.args, got, tc.want)
			}
		})
	}
}
