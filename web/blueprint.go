package web

// Blueprint is a group of documented routes with common URL prefix, tags, responses and security.
//
// Blueprint is exposed by App.RegisterAPI or nested with Blueprint.RegisterAPI.
type Blueprint struct {
	*API

	name string
}

// NewBlueprint creates a group of routes with URL prefix.
//
// WithDocUI(false) excludes blueprint routes from documentation, they are still served.
func NewBlueprint(name, urlPrefix string, opts ...Option) *Blueprint {
	o := newOptions(opts)

	bp := &Blueprint{
		API:  newAPI(urlPrefix, o),
		name: name,
	}

	bp.hideRoutes = !o.docUI

	return bp
}

// Name returns blueprint name.
func (bp *Blueprint) Name() string {
	return bp.name
}
