package pysrc

// stdlibModules is the fixed allow-list of Python 3.11 standard-library
// module names, plus a handful of common sub-packages. Any top-level
// imported name absent from this set is treated as an illegal dependency.
var stdlibModules = map[string]struct{}{}

func init() {
	names := []string{
		// Built-in and stdlib modules
		"__future__", "__main__", "_thread", "abc", "aifc", "argparse",
		"array", "ast", "asynchat", "asyncio", "asyncore", "atexit",
		"audioop", "base64", "bdb", "binascii", "binhex", "bisect",
		"builtins", "bz2", "calendar", "cgi", "cgitb", "chunk", "cmath",
		"cmd", "code", "codecs", "codeop", "collections", "colorsys",
		"compileall", "concurrent", "configparser", "contextlib",
		"contextvars", "copy", "copyreg", "cProfile", "crypt", "csv",
		"ctypes", "curses", "dataclasses", "datetime", "dbm", "decimal",
		"difflib", "dis", "distutils", "doctest", "email", "encodings",
		"enum", "errno", "faulthandler", "fcntl", "filecmp", "fileinput",
		"fnmatch", "fractions", "ftplib", "functools", "gc", "getopt",
		"getpass", "gettext", "glob", "graphlib", "grp", "gzip", "hashlib",
		"heapq", "hmac", "html", "http", "idlelib", "imaplib", "imghdr",
		"imp", "importlib", "inspect", "io", "ipaddress", "itertools",
		"json", "keyword", "lib2to3", "linecache", "locale", "logging",
		"lzma", "mailbox", "mailcap", "marshal", "math", "mimetypes",
		"mmap", "modulefinder", "multiprocessing", "netrc", "nis",
		"nntplib", "numbers", "operator", "optparse", "os", "ossaudiodev",
		"pathlib", "pdb", "pickle", "pickletools", "pipes", "pkgutil",
		"platform", "plistlib", "poplib", "posix", "posixpath", "pprint",
		"profile", "pstats", "pty", "pwd", "py_compile", "pyclbr",
		"pydoc", "queue", "quopri", "random", "re", "readline", "reprlib",
		"resource", "rlcompleter", "runpy", "sched", "secrets", "select",
		"selectors", "shelve", "shlex", "shutil", "signal", "site",
		"smtpd", "smtplib", "sndhdr", "socket", "socketserver", "spwd",
		"sqlite3", "ssl", "stat", "statistics", "string", "stringprep",
		"struct", "subprocess", "sunau", "symtable", "sys", "sysconfig",
		"syslog", "tabnanny", "tarfile", "telnetlib", "tempfile", "termios",
		"test", "textwrap", "threading", "time", "timeit", "tkinter",
		"token", "tokenize", "tomllib", "trace", "traceback", "tracemalloc",
		"tty", "turtle", "turtledemo", "types", "typing", "typing_extensions",
		"unicodedata", "unittest", "urllib", "uu", "uuid", "venv",
		"warnings", "wave", "weakref", "webbrowser", "winreg", "winsound",
		"wsgiref", "xdrlib", "xml", "xmlrpc", "zipapp", "zipfile",
		"zipimport", "zlib", "zoneinfo",
		// Common sub-packages that should also be allowed
		"collections.abc", "concurrent.futures", "email.mime",
		"html.parser", "http.client", "http.server", "http.cookies",
		"importlib.util", "importlib.metadata", "logging.handlers",
		"multiprocessing.pool", "os.path", "unittest.mock",
		"urllib.request", "urllib.parse", "urllib.error",
		"xml.etree", "xml.etree.ElementTree", "xml.dom", "xml.sax",
	}
	for _, n := range names {
		stdlibModules[n] = struct{}{}
	}
}

// IsStdlib reports whether name is on the standard-library allow-list.
func IsStdlib(name string) bool {
	_, ok := stdlibModules[name]
	return ok
}
