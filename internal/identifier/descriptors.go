package identifier

// GATT descriptor declarations 0x2900-0x290E (extended properties, user
// description, client/server configuration, presentation format, ...).
// They are standardized by construction and say nothing about what an
// application does, so functionality assignment skips them.
var descriptors = map[Identifier]struct{}{
	"00002900-0000-1000-8000-00805F9B34FB": {},
	"00002901-0000-1000-8000-00805F9B34FB": {},
	"00002902-0000-1000-8000-00805F9B34FB": {},
	"00002903-0000-1000-8000-00805F9B34FB": {},
	"00002904-0000-1000-8000-00805F9B34FB": {},
	"00002905-0000-1000-8000-00805F9B34FB": {},
	"00002906-0000-1000-8000-00805F9B34FB": {},
	"00002907-0000-1000-8000-00805F9B34FB": {},
	"00002908-0000-1000-8000-00805F9B34FB": {},
	"00002909-0000-1000-8000-00805F9B34FB": {},
	"0000290A-0000-1000-8000-00805F9B34FB": {},
	"0000290B-0000-1000-8000-00805F9B34FB": {},
	"0000290C-0000-1000-8000-00805F9B34FB": {},
	"0000290D-0000-1000-8000-00805F9B34FB": {},
	"0000290E-0000-1000-8000-00805F9B34FB": {},
}

// IsDescriptor reports whether id is a GATT descriptor declaration.
func IsDescriptor(id Identifier) bool {
	_, ok := descriptors[id]
	return ok
}
