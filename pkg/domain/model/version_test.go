package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/plotline-dev/plotline/pkg/domain/model"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{in: "v1", want: 1, ok: true},
		{in: "v12", want: 12, ok: true},
		{in: "7", want: 7, ok: true},
		{in: "v3-hotfix", want: 3, ok: true},
		{in: "", ok: false},
		{in: "v", ok: false},
		{in: "draft", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, ok := model.ParseVersion(tt.in)
			gt.Value(t, ok).Equal(tt.ok)
			gt.Value(t, n).Equal(tt.want)
		})
	}
}

func TestNextVersion(t *testing.T) {
	gt.Value(t, model.NextVersion("")).Equal("v1")
	gt.Value(t, model.NextVersion("v1")).Equal("v2")
	gt.Value(t, model.NextVersion("v9")).Equal("v10")
	gt.Value(t, model.NextVersion("beta")).Equal("v1")
}

func TestCompareVersions(t *testing.T) {
	gt.Value(t, model.CompareVersions("v2", "v10")).Equal(-1)
	gt.Value(t, model.CompareVersions("v10", "v2")).Equal(1)
	gt.Value(t, model.CompareVersions("v3", "v3")).Equal(0)
	gt.Value(t, model.CompareVersions("beta", "v1")).Equal(-1)
}
