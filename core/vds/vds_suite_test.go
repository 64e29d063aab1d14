package vds_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestVDS(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "vds Suite")
}
