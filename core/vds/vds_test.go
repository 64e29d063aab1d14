package vds_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/dghoshal-lbl/madats/cmn/config"
	"github.com/dghoshal-lbl/madats/core/task"
	"github.com/dghoshal-lbl/madats/core/vds"
	"github.com/dghoshal-lbl/madats/storage"
)

func newCatalog(scratch, burst string) storage.Catalog {
	return storage.NewMountCatalog(map[string]config.TierConfig{
		"scratch": {Mount: scratch, Persist: "NONE", Interface: "posix", Bandwidth: 700},
		"burst":   {Mount: burst, Persist: "NONE", Interface: "posix", Bandwidth: 1600},
	})
}

var _ = Describe("VDS", func() {
	var (
		scratch, burst string
		catalog        storage.Catalog
		space          *vds.VDS
	)

	BeforeEach(func() {
		scratch = GinkgoT().TempDir()
		burst = GinkgoT().TempDir()
		catalog = newCatalog(scratch, burst)
		space = vds.New(catalog)
	})

	Describe("Map", func() {
		It("maps a datapath to a stable VDO id", func() {
			path := filepath.Join(scratch, "in1")
			Expect(os.WriteFile(path, []byte("A"), 0o644)).To(Succeed())

			first := space.Map(path)
			second := space.Map(path)
			Expect(second.ID).To(Equal(first.ID))
			Expect(space.Count()).To(Equal(1))
		})
	})

	Describe("CreateDataTask", func() {
		It("stages input in (Case A) when src has no producer", func() {
			srcPath := filepath.Join(scratch, "in1")
			Expect(os.WriteFile(srcPath, []byte("A"), 0o644)).To(Succeed())

			src := space.Map(srcPath)
			consumer := task.New(task.WithCommand("cat"))
			space.AddTask(consumer)
			src.AddConsumer(consumer.ID)

			dest := space.Copy(src, "burst")

			movers, data := space.Tasks()
			_ = movers
			Expect(data).NotTo(BeEmpty())

			var mover *task.Task
			for _, d := range data {
				if d.DataKind == task.Mover {
					mover = d
				}
			}
			Expect(mover).NotTo(BeNil())
			Expect(mover.SrcVDO).To(Equal(src.ID))
			Expect(mover.DestVDO).To(Equal(dest.ID))
			Expect(dest.Producers()).To(ConsistOf(mover.ID))
			Expect(src.Consumers()).To(ConsistOf(mover.ID))
		})

		It("is idempotent: re-inserting the same pair returns the same task", func() {
			srcPath := filepath.Join(scratch, "in1")
			Expect(os.WriteFile(srcPath, []byte("A"), 0o644)).To(Succeed())

			src := space.Map(srcPath)
			consumer := task.New(task.WithCommand("cat"))
			space.AddTask(consumer)
			src.AddConsumer(consumer.ID)

			dest := space.Map(filepath.Join(burst, "in1"))
			first := space.CreateDataTask(src, dest)
			second := space.CreateDataTask(src, dest)
			Expect(first).NotTo(BeNil())
			Expect(second).NotTo(BeNil())
			Expect(second.ID).To(Equal(first.ID))

			_, data := space.Tasks()
			movers := 0
			for _, d := range data {
				if d.DataKind == task.Mover {
					movers++
				}
			}
			Expect(movers).To(Equal(1))
		})

		It("short-circuits when src and dest already have the same content", func() {
			srcPath := filepath.Join(scratch, "in1")
			destPath := filepath.Join(burst, "in1")
			Expect(os.WriteFile(srcPath, []byte("A"), 0o644)).To(Succeed())
			Expect(os.WriteFile(destPath, []byte("A"), 0o644)).To(Succeed())

			src := space.Map(srcPath)
			consumer := task.New(task.WithCommand("cat"), task.WithParams([]task.Param{task.Ref(src.ID)}))
			space.AddTask(consumer)
			src.AddConsumer(consumer.ID)

			dest := space.Map(destPath)
			dest.SetConsumers(append([]string(nil), src.Consumers()...))

			result := space.CreateDataTask(src, dest)
			Expect(result).To(BeNil())
			Expect(space.Exists(src.ID)).To(BeFalse())
			Expect(consumer.Params[0].VDORef).To(Equal(dest.ID))
		})

		It("wires a CLEANER task when auto-cleanup is enabled", func() {
			space.SetAutoCleanup(true)

			srcPath := filepath.Join(scratch, "in1")
			Expect(os.WriteFile(srcPath, []byte("A"), 0o644)).To(Succeed())

			src := space.Map(srcPath)
			consumer := task.New(task.WithCommand("cat"))
			space.AddTask(consumer)
			src.AddConsumer(consumer.ID)

			space.Copy(src, "burst")

			_, data := space.Tasks()
			cleaners := 0
			for _, d := range data {
				if d.DataKind == task.Cleaner {
					cleaners++
				}
			}
			Expect(cleaners).To(Equal(1))
		})
	})
})
