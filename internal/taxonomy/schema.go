package taxonomy

// Schema is the JSON schema every category database must satisfy. Each
// category maps subcategories, each subcategory maps root words, and each
// root word is an object. A list anywhere a mapping is expected is rejected.
const Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "blemap category database",
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "additionalProperties": {
      "type": "object",
      "additionalProperties": { "$ref": "#/definitions/root" }
    }
  },
  "definitions": {
    "words": {
      "type": "array",
      "items": { "type": "string" }
    },
    "children": {
      "type": "object",
      "additionalProperties": { "$ref": "#/definitions/child" }
    },
    "child": {
      "type": ["object", "null"],
      "properties": {
        "children": { "$ref": "#/definitions/children" }
      }
    },
    "root": {
      "type": "object",
      "properties": {
        "blacklist": { "$ref": "#/definitions/words" },
        "meaning": { "$ref": "#/definitions/words" },
        "children": { "$ref": "#/definitions/children" }
      }
    }
  }
}`
