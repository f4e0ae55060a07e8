package tinydi_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/andriiyaremenko/tinydi"
)

var _ = Describe("Handlers", func() {
	It("should inject a registered property after construction", func() {
		c := newTestContainer("app")
		c.
			Set(tinydi.ServiceOptions{Type: nameServiceConstructor}).
			Set(tinydi.ServiceOptions{Type: func() *BaseService { return &BaseService{} }}).
			RegisterHandler(tinydi.PropertyHandler[BaseService]("Dependency", func(c tinydi.Container) (any, error) {
				return tinydi.Get[NameService](c)
			}))

		base, err := tinydi.Get[*BaseService](c)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(base.Dependency).NotTo(BeNil())
		Expect(base.Dependency.Name()).To(Equal("Bob"))
	})

	It("should apply a handler declared for an embedded type to the embedding type", func() {
		c := newTestContainer("app")
		c.
			Set(tinydi.ServiceOptions{Type: nameServiceConstructor}).
			Set(tinydi.ServiceOptions{Type: func() *DerivedService { return &DerivedService{extra: "yes"} }}).
			RegisterHandler(tinydi.PropertyHandler[BaseService]("Dependency", func(c tinydi.Container) (any, error) {
				return tinydi.Get[NameService](c)
			}))

		derived, err := tinydi.Get[*DerivedService](c)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(derived.Dependency).NotTo(BeNil())
		Expect(derived.Dependency.Name()).To(Equal("Bob"))
	})

	It("should prefer the handler declared for the most derived type", func() {
		c := newTestContainer("app")
		c.
			Set(tinydi.ServiceOptions{Type: func() *DerivedService { return &DerivedService{} }}).
			RegisterHandler(tinydi.PropertyHandler[BaseService]("Dependency", func(c tinydi.Container) (any, error) {
				return NameProvider("base"), nil
			})).
			RegisterHandler(tinydi.PropertyHandler[DerivedService]("Dependency", func(c tinydi.Container) (any, error) {
				return NameProvider("derived"), nil
			}))

		derived, err := tinydi.Get[*DerivedService](c)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(derived.Dependency.Name()).To(Equal("derived"))
	})

	It("should override a constructor parameter with a parameter handler", func() {
		c := newTestContainer("app")
		c.
			Set(tinydi.ServiceOptions{Type: nameServiceConstructor}).
			Set(tinydi.ServiceOptions{Type: heroConstructor}).
			RegisterHandler(tinydi.ParameterHandler[*Hero](0, func(c tinydi.Container) (any, error) {
				return NameProvider("Wanda"), nil
			}))

		hero, err := tinydi.Get[*Hero](c)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(hero.Announce()).To(Equal("Wanda is our hero!"))
	})

	It("should inherit handlers from ancestor containers", func() {
		registry := tinydi.NewRegistry()
		root := registry.Default()
		root.RegisterHandler(tinydi.PropertyHandler[BaseService]("Dependency", func(c tinydi.Container) (any, error) {
			return NameProvider("from root"), nil
		}))

		child := root.CreateChild("child")
		child.Set(tinydi.ServiceOptions{Type: func() *BaseService { return &BaseService{} }})

		base, err := tinydi.Get[*BaseService](child)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(base.Dependency.Name()).To(Equal("from root"))
	})

	It("should let a local handler shadow an inherited one", func() {
		registry := tinydi.NewRegistry()
		root := registry.Default()
		root.RegisterHandler(tinydi.PropertyHandler[BaseService]("Dependency", func(c tinydi.Container) (any, error) {
			return NameProvider("from root"), nil
		}))

		child := root.CreateChild("child")
		child.
			Set(tinydi.ServiceOptions{Type: func() *BaseService { return &BaseService{} }}).
			RegisterHandler(tinydi.PropertyHandler[BaseService]("Dependency", func(c tinydi.Container) (any, error) {
				return NameProvider("from child"), nil
			}))

		base, err := tinydi.Get[*BaseService](child)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(base.Dependency.Name()).To(Equal("from child"))
	})

	It("should not leak handlers across unrelated containers", func() {
		registry := tinydi.NewRegistry()
		first := tinydi.New("first", tinydi.WithRegistry(registry))
		second := tinydi.New("second", tinydi.WithRegistry(registry))

		first.
			Set(tinydi.ServiceOptions{Type: func() *BaseService { return &BaseService{} }}).
			RegisterHandler(tinydi.PropertyHandler[BaseService]("Dependency", func(c tinydi.Container) (any, error) {
				return NameProvider("first only"), nil
			}))
		second.Set(tinydi.ServiceOptions{Type: func() *BaseService { return &BaseService{} }})

		withHandler, err := tinydi.Get[*BaseService](first)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(withHandler.Dependency).NotTo(BeNil())

		without, err := tinydi.Get[*BaseService](second)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(without.Dependency).To(BeNil())
	})

	It("should refuse a handler without a resolver", func() {
		c := newTestContainer("app")
		c.RegisterHandler(tinydi.Handler{Target: &BaseService{}, PropertyName: "Dependency"})

		Expect(c.Err()).Should(MatchError(tinydi.ErrNilHandlerResolver))
	})

	It("should refuse a handler naming both a property and a parameter", func() {
		c := newTestContainer("app")
		c.RegisterHandler(tinydi.Handler{
			Target:       &BaseService{},
			PropertyName: "Dependency",
			Index:        1,
			Resolve:      func(c tinydi.Container) (any, error) { return nil, nil },
		})

		Expect(c.Err()).Should(MatchError(tinydi.ErrAmbiguousHandler))
	})

	It("should report a property the target type does not have", func() {
		c := newTestContainer("app")
		c.
			Set(tinydi.ServiceOptions{Type: func() *BaseService { return &BaseService{} }}).
			RegisterHandler(tinydi.PropertyHandler[BaseService]("Nonexistent", func(c tinydi.Container) (any, error) {
				return NameProvider("lost"), nil
			}))

		_, err := tinydi.Get[*BaseService](c)
		Expect(err).Should(MatchError(tinydi.ErrNoSuchField))
	})
})
