package data

const (
	RouteCreate        string = "/"
	RouteAll           string = "/all"
	RouteDetails       string = "/details/{" + PathId + "}"
	RouteDetailsf      string = "/details/%d"
	RouteDelete        string = "/delete/{" + PathId + "}"
	RouteDeletef       string = "/delete/%d"
	RouteSearch        string = "/search"
	RouteUpdate        string = "/update/{" + PathId + "}"
	RouteUpdatef       string = "/update/%d"
	RouteSignin        string = "/signin"
	RouteSignout       string = "/signout"
	RouteMedia         string = "/media/{" + PathPhoto + "}"
	RouteMediaf        string = "/media/%s"
	RouteVersion       string = "/version"
	RouteCache         string = "/debug/cache"
	RouteCacheCounters string = "/debug/cache_counters"
	RouteTimers        string = "/debug/timers"
)

const (
	PathId    string = "id"
	PathPhoto string = "photo"
)

const (
	ParameterPage       string = "page"
	ParameterSearchWord string = "search_word"
	ParameterDisabled   string = "disabled"
	ParameterNext       string = "next"
)

// form field names, shared by the templates and FieldErrors keys
const (
	FieldName       string = "name"
	FieldEmail      string = "email"
	FieldPhoto      string = "photo"
	FieldPhotoClear string = "photo-clear"
	FieldDob        string = "dob"
	FieldSalary     string = "salary"
	FieldDisabled   string = "disabled"
	FieldUsername   string = "username"
	FieldPassword   string = "password"
)

const DateLayout string = "2006-01-02"
