package config_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kagehq/failover/config"
)

var _ = Describe("ParseSize", func() {
	It("should parse bare byte counts", func() {
		Expect(config.ParseSize("4096")).To(Equal(int64(4096)))
	})

	It("should parse KB at base-1024", func() {
		Expect(config.ParseSize("512KB")).To(Equal(int64(512 * 1024)))
	})

	It("should parse MB at base-1024", func() {
		Expect(config.ParseSize("10MB")).To(Equal(int64(10 * 1024 * 1024)))
	})

	It("should parse GB at base-1024", func() {
		Expect(config.ParseSize("1GB")).To(Equal(int64(1024 * 1024 * 1024)))
	})

	It("should ignore suffix case", func() {
		Expect(config.ParseSize("1kb")).To(Equal(int64(1024)))
		Expect(config.ParseSize("2Mb")).To(Equal(int64(2 * 1024 * 1024)))
	})

	It("should reject empty input", func() {
		_, err := config.ParseSize("")
		Expect(err).To(HaveOccurred())
	})

	It("should reject non-numeric input", func() {
		_, err := config.ParseSize("lotsMB")
		Expect(err).To(HaveOccurred())
	})

	It("should reject unknown suffixes", func() {
		_, err := config.ParseSize("10TB")
		Expect(err).To(HaveOccurred())
	})

	It("should reject negative sizes", func() {
		_, err := config.ParseSize("-1MB")
		Expect(err).To(HaveOccurred())
	})
})
