package tinydi

import (
	"context"

	"github.com/stretchr/testify/suite"
)

type serviceCreationSuite struct {
	suite.Suite
}

func (suite *serviceCreationSuite) TestGetNewTransientInstance() {
	c := isolated("app")
	i := 0
	c.Set(ServiceOptions{Type: getServiceC(&i), Scope: Transient})

	s1, err := c.Get(TypeOf[service]())

	suite.NoError(err, "should not return any error")
	suite.Equal("1 attempt", s1.(service).Call(), "method should be invoked successfully")

	s2, err := c.Get(TypeOf[service]())

	suite.NoError(err, "should not return any error")
	suite.Equal("2 attempt", s2.(service).Call(), "method should be invoked successfully")
	suite.Equal(2, i, "constructor func should have been called twice")
	suite.NotEqual(s1, s2, "transient services should not be equal")
}

func (suite *serviceCreationSuite) TestGetCachedInstanceWithinContainer() {
	c := isolated("app")
	i := 0
	c.Set(ServiceOptions{Type: getServiceC(&i)})

	s1, err := c.Get(TypeOf[service]())

	suite.NoError(err, "should not return any error")

	s2, err := c.Get(TypeOf[service]())

	suite.NoError(err, "should not return any error")
	suite.Equal(1, i, "constructor func should have been called once")
	suite.Equal(s1, s2, "container-scoped services should be equal within a container")
}

func (suite *serviceCreationSuite) TestGlobalDefinitionIsClonedDown() {
	registry := NewRegistry()
	root := registry.defaultContainer()
	i := 0
	root.Set(ServiceOptions{Type: getServiceC(&i)})

	child := newContainer("child", nil, []ContainerOption{WithRegistry(registry)})

	_, err := child.Get(TypeOf[service]())
	suite.NoError(err, "should not return any error")

	cloned := child.records[TypeOf[service]()]
	suite.NotNil(cloned, "child should hold its own record after the pulldown")
	suite.NotSame(root.records[TypeOf[service]()], cloned, "child record should be a clone, not the shared one")
	suite.Nil(root.records[TypeOf[service]()].value, "the global definition should stay unconstructed")
}

func (suite *serviceCreationSuite) TestSingletonIsConstructedOnTheDefaultContainer() {
	registry := NewRegistry()
	root := registry.defaultContainer()
	i := 0
	root.Set(ServiceOptions{Type: getServiceC(&i), Scope: Singleton})

	child := newContainer("child", nil, []ContainerOption{WithRegistry(registry)})

	s1, err := child.Get(TypeOf[service]())
	suite.NoError(err, "should not return any error")

	record := root.records[TypeOf[service]()]
	suite.True(record.constructed(), "the instance should be cached on the default container")
	suite.Equal(s1, *record.value, "the cached instance should be the resolved one")
	suite.Nil(child.records[TypeOf[service]()], "the child should not hold a singleton record")
}

func (suite *serviceCreationSuite) TestGetManyPreservesRegistrationOrder() {
	c := isolated("app")
	c.
		Set(ServiceOptions{ID: "greeting", Value: Val("hello"), Multiple: true}).
		Set(ServiceOptions{ID: "greeting", Value: Val("hi"), Multiple: true}).
		Set(ServiceOptions{ID: "greeting", Value: Val("hey"), Multiple: true})

	greetings, err := GetManyOf[string](c, "greeting")

	suite.NoError(err, "should not return any error")
	suite.Equal([]string{"hello", "hi", "hey"}, greetings, "values should come back in registration order")
}

func (suite *serviceCreationSuite) TestGetNamedRejectsWrongType() {
	c := isolated("app")
	c.Set(ServiceOptions{ID: "port", Value: Val(8080)})

	_, err := GetNamed[string](c, "port")

	suite.Error(err, "should return an error")

	var wrongType *WrongTypeError
	suite.ErrorAs(err, &wrongType, "should carry a WrongTypeError")
	suite.Equal(TypeOf[string](), wrongType.Expected)
}

func (suite *serviceCreationSuite) TestMustGetPanicsOnMissingService() {
	c := isolated("app")

	suite.Panics(func() { MustGet[service](c) }, "should panic on a missing service")
}

func (suite *serviceCreationSuite) TestGetCtxPassesContextThrough() {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "present")

	c := isolated("app")
	c.Set(ServiceOptions{
		ID: "probe",
		Type: func(ctx context.Context) string {
			v, _ := ctx.Value(key{}).(string)
			return v
		},
		Async: true,
	})

	v, err := c.GetCtx(ctx, "probe")

	suite.NoError(err, "should not return any error")
	suite.Equal("present", v, "the caller context should reach the constructor")
}

func (suite *serviceCreationSuite) TestRemoveDropsTheCachedInstance() {
	c := isolated("app")
	i := 0
	c.Set(ServiceOptions{Type: getServiceC(&i)})

	_, err := c.Get(TypeOf[service]())
	suite.NoError(err, "should not return any error")

	c.Remove(TypeOf[service]())

	_, err = c.Get(TypeOf[service]())
	suite.Error(err, "should return an error after removal")

	var notFound *ServiceNotFoundError
	suite.ErrorAs(err, &notFound, "should report the service as not found")
}
