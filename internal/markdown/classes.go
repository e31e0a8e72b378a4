package markdown

const (
	classH1         = "text-2xl font-bold mb-4 mt-6"
	classH2         = "text-xl font-semibold mb-3 mt-5"
	classH3         = "text-lg font-semibold mb-2 mt-4"
	classStrong     = "font-semibold"
	classEm         = "italic"
	classCode       = "bg-gray-100 px-2 py-1 rounded text-sm font-mono text-red-600"
	classPre        = "bg-gray-100 p-4 rounded-lg overflow-x-auto my-4"
	classPreCode    = "text-sm font-mono"
	classLink       = "text-blue-600 hover:text-blue-800 underline"
	classListItem   = "ml-4"
	classBlockquote = "border-l-4 border-gray-300 pl-4 py-2 my-4 bg-gray-50 italic"
	classImage      = "max-w-full h-auto rounded-lg shadow-sm my-4"
	classParagraph  = "mb-4"

	bullet = "• "
)

func headingClass(level int) string {
	switch level {
	case 1:
		return classH1
	case 2:
		return classH2
	case 3:
		return classH3
	}
	return ""
}
